package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/springgate/practice-exam-service/internal/models"
)

func ValidateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.QuestionMCQ,
		models.QuestionFillBlank,
		models.QuestionWritten,
		models.QuestionMatching,
		models.QuestionDrawing,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

func ValidateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleAdmin,
		models.RoleStudent,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func ValidateExamStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.ExamStatus{
		models.ExamPending,
		models.ExamInProgress,
		models.ExamSubmitted,
		models.ExamGrading,
		models.ExamReleased,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators.
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)
	validate.RegisterValidation("user_role", ValidateUserRole)
	validate.RegisterValidation("exam_status", ValidateExamStatus)

	// Report field names from json tags for readable error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// NewValidator returns a validator with all custom rules registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return validate
}

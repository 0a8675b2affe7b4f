package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory repositories.TransactionRepository. It serializes
// every operation behind one mutex, which is enough to exercise the atomic
// contracts (magic-link consume, status-guarded transitions) under the race
// detector.
type fakeRepo struct {
	mu sync.Mutex

	users     map[uint]*models.User
	roles     map[uint]*models.Role
	sessions  map[string]*models.Session
	links     map[string]*models.MagicLink
	sets      map[uint]*models.QuestionSet
	questions map[uint]*models.Question
	exams     map[uint]*models.PracticeExam
	answers   map[uint]*models.StudentAnswer
	audits    []*models.AuditLog

	nextID uint
}

func newFakeRepo() *fakeRepo {
	r := &fakeRepo{
		users:     make(map[uint]*models.User),
		roles:     make(map[uint]*models.Role),
		sessions:  make(map[string]*models.Session),
		links:     make(map[string]*models.MagicLink),
		sets:      make(map[uint]*models.QuestionSet),
		questions: make(map[uint]*models.Question),
		exams:     make(map[uint]*models.PracticeExam),
		answers:   make(map[uint]*models.StudentAnswer),
	}
	r.roles[1] = &models.Role{ID: 1, Name: models.RoleAdmin}
	r.roles[2] = &models.Role{ID: 2, Name: models.RoleStudent}
	r.nextID = 10
	return r
}

func (r *fakeRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) User() repositories.UserRepository               { return (*fakeUsers)(r) }
func (r *fakeRepo) Role() repositories.RoleRepository               { return (*fakeRoles)(r) }
func (r *fakeRepo) Session() repositories.SessionRepository         { return (*fakeSessions)(r) }
func (r *fakeRepo) MagicLink() repositories.MagicLinkRepository     { return (*fakeLinks)(r) }
func (r *fakeRepo) QuestionSet() repositories.QuestionSetRepository { return (*fakeSets)(r) }
func (r *fakeRepo) Exam() repositories.ExamRepository               { return (*fakeExams)(r) }
func (r *fakeRepo) Answer() repositories.AnswerRepository           { return (*fakeAnswers)(r) }
func (r *fakeRepo) Audit() repositories.AuditRepository             { return (*fakeAudits)(r) }

func (r *fakeRepo) Begin(ctx context.Context) (repositories.Repository, error) { return r, nil }
func (r *fakeRepo) Commit(ctx context.Context) error                           { return nil }
func (r *fakeRepo) Rollback(ctx context.Context) error                         { return nil }

// ===== USERS =====

type fakeUsers fakeRepo

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = (*fakeRepo)(f).id()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	if role, ok := f.roles[user.RoleID]; ok {
		copied.Role = *role
		copied.RoleName = role.Name
	}
	return &copied, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			if role, ok := f.roles[user.RoleID]; ok {
				copied.Role = *role
				copied.RoleName = role.Name
			}
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, user := range f.users {
		if filters.Role != nil {
			role, ok := f.roles[user.RoleID]
			if !ok || role.Name != *filters.Role {
				continue
			}
		}
		if filters.IsActive != nil && user.IsActive != *filters.IsActive {
			continue
		}
		copied := *user
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeUsers) IncrementFailedLogins(ctx context.Context, id uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	user.FailedLoginAttempts++
	return user.FailedLoginAttempts, nil
}

func (f *fakeUsers) LockUntil(ctx context.Context, id uint, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LockedUntil = &until
	return nil
}

func (f *fakeUsers) ResetFailedLogins(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return nil
}

func (f *fakeUsers) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLogin = &at
	return nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeUsers) SetActive(ctx context.Context, id uint, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsActive = active
	return nil
}

// ===== ROLES =====

type fakeRoles fakeRepo

func (f *fakeRoles) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, ok := f.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (f *fakeRoles) GetByName(ctx context.Context, name models.UserRole) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, role := range f.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ===== SESSIONS =====

type fakeSessions fakeRepo

func (f *fakeSessions) Create(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.ID = (*fakeRepo)(f).id()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.LastActivity
	}
	copied := *session
	f.sessions[session.SessionToken] = &copied
	return nil
}

func (f *fakeSessions) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessions) TouchActivity(ctx context.Context, token string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[token]; ok {
		session.LastActivity = at
	}
	return nil
}

func (f *fakeSessions) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessions) ListByUser(ctx context.Context, userID uint, now time.Time) ([]*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Session
	for _, session := range f.sessions {
		if session.UserID == userID && now.Before(session.ExpiresAt) {
			copied := *session
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSessions) DeleteByUser(ctx context.Context, userID uint, exceptToken string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for token, session := range f.sessions {
		if session.UserID == userID && token != exceptToken {
			delete(f.sessions, token)
			count++
		}
	}
	return count, nil
}

func (f *fakeSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for token, session := range f.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(f.sessions, token)
			count++
		}
	}
	return count, nil
}

// ===== MAGIC LINKS =====

type fakeLinks fakeRepo

func (f *fakeLinks) Create(ctx context.Context, link *models.MagicLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	link.ID = (*fakeRepo)(f).id()
	copied := *link
	f.links[link.Token] = &copied
	return nil
}

func (f *fakeLinks) GetByToken(ctx context.Context, token string) (*models.MagicLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *link
	return &copied, nil
}

func (f *fakeLinks) Consume(ctx context.Context, token string, purpose models.MagicLinkPurpose, now time.Time) (*models.MagicLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[token]
	if !ok || link.Purpose != purpose || link.UsedAt != nil || !now.Before(link.ExpiresAt) {
		return nil, gorm.ErrRecordNotFound
	}
	used := now
	link.UsedAt = &used
	copied := *link
	return &copied, nil
}

// ===== QUESTION SETS =====

type fakeSets fakeRepo

func (f *fakeSets) Create(ctx context.Context, set *models.QuestionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set.ID = (*fakeRepo)(f).id()
	copied := *set
	f.sets[set.ID] = &copied
	return nil
}

func (f *fakeSets) GetByID(ctx context.Context, id uint) (*models.QuestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *set
	return &copied, nil
}

func (f *fakeSets) GetByShareToken(ctx context.Context, token string) (*models.QuestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, set := range f.sets {
		if set.ShareToken != nil && *set.ShareToken == token {
			copied := *set
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSets) SetShareToken(ctx context.Context, id uint, token *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	set.ShareToken = token
	return nil
}

func (f *fakeSets) List(ctx context.Context, filters repositories.QuestionSetFilters) ([]*models.QuestionSet, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.QuestionSet
	for _, set := range f.sets {
		if filters.Subject != "" && set.Subject != filters.Subject {
			continue
		}
		copied := *set
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeSets) CreateQuestion(ctx context.Context, question *models.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	question.ID = (*fakeRepo)(f).id()
	copied := *question
	f.questions[question.ID] = &copied
	return nil
}

func (f *fakeSets) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	question, ok := f.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *question
	return &copied, nil
}

func (f *fakeSets) GetQuestions(ctx context.Context, setID uint) ([]*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Question
	for _, question := range f.questions {
		if question.QuestionSetID == setID && question.IsActive {
			copied := *question
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

func (f *fakeSets) SumMarks(ctx context.Context, setID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, question := range f.questions {
		if question.QuestionSetID == setID && question.IsActive {
			sum += question.Marks
		}
	}
	return sum, nil
}

// ===== EXAMS =====

type fakeExams fakeRepo

func (f *fakeExams) Create(ctx context.Context, exam *models.PracticeExam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam.ID = (*fakeRepo)(f).id()
	copied := *exam
	f.exams[exam.ID] = &copied
	return nil
}

func (f *fakeExams) getLocked(id uint) (*models.PracticeExam, error) {
	exam, ok := f.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *exam
	if student, ok := f.users[exam.StudentID]; ok {
		copied.Student = *student
	}
	if set, ok := f.sets[exam.QuestionSetID]; ok {
		copied.QuestionSet = *set
	}
	return &copied, nil
}

func (f *fakeExams) GetByID(ctx context.Context, id uint) (*models.PracticeExam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getLocked(id)
}

func (f *fakeExams) GetForStudent(ctx context.Context, id, studentID uint) (*models.PracticeExam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, err := f.getLocked(id)
	if err != nil {
		return nil, err
	}
	if exam.StudentID != studentID {
		return nil, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (f *fakeExams) GetByShareToken(ctx context.Context, token string) (*models.PracticeExam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, exam := range f.exams {
		if exam.IsPublic && exam.ShareToken != nil && *exam.ShareToken == token {
			return f.getLocked(id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeExams) SetShare(ctx context.Context, id uint, token *string, public bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, ok := f.exams[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	exam.ShareToken = token
	exam.IsPublic = public
	return nil
}

func (f *fakeExams) IncrementShareViews(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, ok := f.exams[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	exam.ShareViews++
	return nil
}

func (f *fakeExams) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.PracticeExam, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PracticeExam
	for id := range f.exams {
		exam, _ := f.getLocked(id)
		if filters.StudentID != nil && exam.StudentID != *filters.StudentID {
			continue
		}
		if len(filters.Statuses) > 0 {
			matched := false
			for _, status := range filters.Statuses {
				if exam.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, exam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeExams) Update(ctx context.Context, exam *models.PracticeExam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.exams[exam.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *exam
	copied.Student = models.User{}
	copied.QuestionSet = models.QuestionSet{}
	f.exams[exam.ID] = &copied
	return nil
}

func (f *fakeExams) Transition(ctx context.Context, id uint, from []models.ExamStatus, updates map[string]any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, ok := f.exams[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, status := range from {
		if exam.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}

	for column, value := range updates {
		switch column {
		case "status":
			exam.Status = value.(models.ExamStatus)
		case "started_at":
			exam.StartedAt = toTimePtr(value)
		case "submitted_at":
			exam.SubmittedAt = toTimePtr(value)
		case "is_delayed":
			exam.IsDelayed = value.(bool)
		case "auto_graded_score":
			exam.AutoGradedScore = toIntPtr(value)
		case "total_score":
			exam.TotalScore = toIntPtr(value)
		case "percentage":
			exam.Percentage = toFloatPtr(value)
		case "graded_by":
			exam.GradedBy = toUintPtr(value)
		case "graded_at":
			exam.GradedAt = toTimePtr(value)
		case "answers_released":
			exam.AnswersReleased = value.(bool)
		case "released_at":
			exam.ReleasedAt = toTimePtr(value)
		}
	}
	return true, nil
}

func (f *fakeExams) StudentStats(ctx context.Context, studentID uint) (*repositories.StudentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repositories.StudentStats{}
	var sum float64
	for _, exam := range f.exams {
		if exam.StudentID != studentID || exam.Status != models.ExamReleased {
			continue
		}
		stats.TotalExams++
		if exam.Percentage != nil {
			sum += *exam.Percentage
			if *exam.Percentage > stats.BestScore {
				stats.BestScore = *exam.Percentage
			}
		}
	}
	if stats.TotalExams > 0 {
		stats.AvgScore = sum / float64(stats.TotalExams)
	}
	return stats, nil
}

// ===== ANSWERS =====

type fakeAnswers fakeRepo

func (f *fakeAnswers) Upsert(ctx context.Context, answer *models.StudentAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.answers {
		if existing.PracticeExamID == answer.PracticeExamID && existing.QuestionID == answer.QuestionID {
			existing.StudentAnswer = answer.StudentAnswer
			existing.DrawingData = answer.DrawingData
			existing.AnsweredAt = answer.AnsweredAt
			return nil
		}
	}
	answer.ID = (*fakeRepo)(f).id()
	copied := *answer
	f.answers[answer.ID] = &copied
	return nil
}

func (f *fakeAnswers) GetByExam(ctx context.Context, examID uint) ([]*models.StudentAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.StudentAnswer
	for _, answer := range f.answers {
		if answer.PracticeExamID == examID {
			copied := *answer
			if question, ok := f.questions[answer.QuestionID]; ok {
				copied.Question = *question
			}
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeAnswers) GetByExamAndQuestion(ctx context.Context, examID, questionID uint) (*models.StudentAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, answer := range f.answers {
		if answer.PracticeExamID == examID && answer.QuestionID == questionID {
			copied := *answer
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAnswers) UpdateGrade(ctx context.Context, examID, questionID uint, marksAwarded int, feedback string, gradedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, answer := range f.answers {
		if answer.PracticeExamID == examID && answer.QuestionID == questionID {
			marks := marksAwarded
			answer.MarksAwarded = &marks
			if feedback != "" {
				fb := feedback
				answer.AdminFeedback = &fb
			}
			at := gradedAt
			answer.GradedAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeAnswers) SetAutoGrade(ctx context.Context, examID, questionID uint, correct bool, marksAwarded int, gradedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, answer := range f.answers {
		if answer.PracticeExamID == examID && answer.QuestionID == questionID {
			isCorrect := correct
			marks := marksAwarded
			at := gradedAt
			answer.IsCorrect = &isCorrect
			answer.MarksAwarded = &marks
			answer.AutoGraded = true
			answer.GradedAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeAnswers) UpdateFeedback(ctx context.Context, examID, questionID uint, feedback string, gradedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, answer := range f.answers {
		if answer.PracticeExamID == examID && answer.QuestionID == questionID {
			fb := feedback
			at := gradedAt
			answer.AdminFeedback = &fb
			answer.GradedAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeAnswers) SumMarksAwarded(ctx context.Context, examID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, answer := range f.answers {
		if answer.PracticeExamID == examID && answer.MarksAwarded != nil {
			sum += *answer.MarksAwarded
		}
	}
	return sum, nil
}

func (f *fakeAnswers) DeleteByExam(ctx context.Context, examID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, answer := range f.answers {
		if answer.PracticeExamID == examID {
			delete(f.answers, id)
		}
	}
	return nil
}

// ===== AUDIT =====

type fakeAudits fakeRepo

func (f *fakeAudits) Create(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = (*fakeRepo)(f).id()
	f.audits = append(f.audits, entry)
	return nil
}

func (f *fakeAudits) List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditLog
	for _, entry := range f.audits {
		if filters.Action != "" && string(entry.Action) != filters.Action {
			continue
		}
		out = append(out, entry)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAudits) actions() []models.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AuditAction, 0, len(f.audits))
	for _, entry := range f.audits {
		out = append(out, entry.Action)
	}
	return out
}

// ===== CONVERSION HELPERS =====

func toTimePtr(value any) *time.Time {
	if value == nil {
		return nil
	}
	t := value.(time.Time)
	return &t
}

func toIntPtr(value any) *int {
	if value == nil {
		return nil
	}
	n := value.(int)
	return &n
}

func toFloatPtr(value any) *float64 {
	if value == nil {
		return nil
	}
	n := value.(float64)
	return &n
}

func toUintPtr(value any) *uint {
	if value == nil {
		return nil
	}
	n := value.(uint)
	return &n
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStudentEnforcesPasswordMinimumAndUniqueEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t, "admin@school.test", "admin-pw-1")

	_, err := env.users.CreateStudent(ctx, &CreateStudentRequest{
		Email:    "carol@school.test",
		Password: "short12",
		FullName: "Carol",
	}, admin.ID, env.meta())
	assert.ErrorIs(t, err, ErrValidationFailed)

	created, err := env.users.CreateStudent(ctx, &CreateStudentRequest{
		Email:    "carol@school.test",
		Password: "long enough",
		FullName: "Carol",
	}, admin.ID, env.meta())
	require.NoError(t, err)
	assert.Equal(t, uint(2), created.RoleID)
	assert.True(t, created.IsActive)

	_, err = env.users.CreateStudent(ctx, &CreateStudentRequest{
		Email:    "carol@school.test",
		Password: "long enough",
		FullName: "Carol Again",
	}, admin.ID, env.meta())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSetPasswordClearsLockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t, "admin@school.test", "admin-pw-1")
	student := env.seedStudent(t, "alice@school.test", "correct horse")

	for i := 0; i < env.cfg.MaxFailedLogins; i++ {
		env.auth.Login(ctx, &LoginRequest{Email: "alice@school.test", Password: "wrong", Meta: env.meta()})
	}
	_, err := env.auth.Login(ctx, &LoginRequest{
		Email: "alice@school.test", Password: "correct horse", Meta: env.meta(),
	})
	require.True(t, IsAccountLocked(err))

	// An admin password reset unlocks the account immediately.
	require.NoError(t, env.users.SetPassword(ctx, student.ID, "brand new pw", admin.ID, env.meta()))
	_, err = env.auth.Login(ctx, &LoginRequest{
		Email: "alice@school.test", Password: "brand new pw", Meta: env.meta(),
	})
	require.NoError(t, err)
}

func TestGetStudentRejectsAdmins(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "admin@school.test", "admin-pw-1")

	_, err := env.users.GetStudent(context.Background(), admin.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeactivateStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t, "admin@school.test", "admin-pw-1")
	student := env.seedStudent(t, "alice@school.test", "correct horse")

	require.NoError(t, env.users.Deactivate(ctx, student.ID, admin.ID, env.meta()))

	stored, err := env.repo.User().GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// Deactivation rather than deletion keeps released results reachable
	// for reporting, so the row itself stays.
	_, err = env.auth.Login(ctx, &LoginRequest{
		Email: "alice@school.test", Password: "correct horse", Meta: env.meta(),
	})
	assert.ErrorIs(t, err, ErrAccountInactive)
}

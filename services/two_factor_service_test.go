package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedCode(t *testing.T, env *testEnv, userID uint) string {
	t.Helper()
	var record model.TwoFactorAuth
	require.NoError(t, env.db.Where("user_id = ?", userID).First(&record).Error)
	return record.VerificationCode
}

func TestTwoFactorSetupAndVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")

	require.NoError(t, env.twoFactor.Enable(ctx, user))
	code := storedCode(t, env, user.ID)
	assert.Len(t, code, model.TwoFactorCodeLength)

	sent := env.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"learner@example.com"}, sent[0].To)
	assert.True(t, strings.HasPrefix(sent[0].Subject, "Your CodeLearn Enable "))
	assert.Contains(t, sent[0].HTML, code)

	require.NoError(t, env.twoFactor.ConfirmSetup(ctx, user, code))
	var reloaded model.User
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.TwoFactorEnabled)

	// A consumed code cannot be replayed
	assert.ErrorIs(t, env.twoFactor.Verify(ctx, user.ID, code), ErrInvalidCode)

	err := env.twoFactor.Enable(ctx, &reloaded)
	assert.ErrorIs(t, err, ErrConflict)

	assert.ErrorIs(t, env.twoFactor.Disable(ctx, &reloaded, "wrong-password"), ErrValidation)
	require.NoError(t, env.twoFactor.Disable(ctx, &reloaded, "password123"))
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	assert.False(t, reloaded.TwoFactorEnabled)
}

func TestTwoFactorLocksAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.twoFactor.now = func() time.Time { return now }

	require.NoError(t, env.twoFactor.IssueCode(ctx, user, TwoFactorPurposeLogin))
	code := storedCode(t, env, user.ID)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 1; i < model.TwoFactorMaxAttempts; i++ {
		err := env.twoFactor.Verify(ctx, user.ID, wrong)
		var attempts *AttemptsError
		require.True(t, errors.As(err, &attempts))
		assert.Equal(t, model.TwoFactorMaxAttempts-i, attempts.Remaining)
	}

	err := env.twoFactor.Verify(ctx, user.ID, wrong)
	var locked *LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 30, locked.RemainingMinutes())

	// Even the right code is refused while locked, and no new code is sent
	now = now.Add(10 * time.Minute)
	assert.ErrorIs(t, env.twoFactor.Verify(ctx, user.ID, code), ErrLocked)
	assert.ErrorIs(t, env.twoFactor.IssueCode(ctx, user, TwoFactorPurposeLogin), ErrLocked)

	// After the lock lapses a fresh code verifies
	now = now.Add(25 * time.Minute)
	require.NoError(t, env.twoFactor.IssueCode(ctx, user, TwoFactorPurposeLogin))
	require.NoError(t, env.twoFactor.Verify(ctx, user.ID, storedCode(t, env, user.ID)))

	var record model.TwoFactorAuth
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&record).Error)
	assert.Zero(t, record.FailedAttempts)
	assert.Nil(t, record.LockedUntil)
	assert.True(t, record.IsVerified)
}

func TestTwoFactorRightCodeOnLastAttemptSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")

	require.NoError(t, env.twoFactor.IssueCode(ctx, user, TwoFactorPurposeLogin))
	code := storedCode(t, env, user.ID)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 1; i < model.TwoFactorMaxAttempts; i++ {
		var attempts *AttemptsError
		require.True(t, errors.As(env.twoFactor.Verify(ctx, user.ID, wrong), &attempts))
	}

	require.NoError(t, env.twoFactor.Verify(ctx, user.ID, code))

	var record model.TwoFactorAuth
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&record).Error)
	assert.Zero(t, record.FailedAttempts)
	assert.Nil(t, record.LockedUntil)
	assert.True(t, record.IsVerified)
}

func TestTwoFactorCodeExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.twoFactor.now = func() time.Time { return now }

	require.NoError(t, env.twoFactor.IssueCode(ctx, user, TwoFactorPurposeLogin))
	code := storedCode(t, env, user.ID)

	now = now.Add(model.TwoFactorCodeTTL + time.Second)
	assert.ErrorIs(t, env.twoFactor.Verify(ctx, user.ID, code), ErrExpired)
}

func TestTwoFactorIssueFailsWhenEmailFails(t *testing.T) {
	env := newTestEnv(t)
	user := env.student(t, "learner@example.com")
	env.mail.result = mailer.Failed("smtp down")

	err := env.twoFactor.IssueCode(context.Background(), user, TwoFactorPurposeLogin)
	assert.ErrorIs(t, err, ErrExternal)
}

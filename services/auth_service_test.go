package services

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesStudentAndQueuesWelcome(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterInput{
		Email:    "  New.Learner@Example.com ",
		Password: "supersecret",
		Name:     "New Learner",
	})
	require.NoError(t, err)
	assert.Equal(t, "new.learner@example.com", user.Email)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.UserProfile{}, "user_id = ?", user.ID))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.OutboxEvent{}, "topic = ?", model.TopicUserRegistered))

	_, err = env.auth.Register(ctx, RegisterInput{Email: "new.learner@example.com", Password: "supersecret", Name: "Again"})
	assert.ErrorIs(t, err, ErrConflict)

	authed, err := env.auth.Authenticate(ctx, "NEW.LEARNER@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = env.auth.Authenticate(ctx, "new.learner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.auth.Authenticate(ctx, "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChangePasswordRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")

	err := env.auth.ChangePassword(ctx, user.ID, "not-it", "newpassword1")
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.auth.ChangePassword(ctx, user.ID, "password123", "newpassword1"))
	reloaded, err := env.auth.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.TokenVersion+1, reloaded.TokenVersion)

	_, err = env.auth.Authenticate(ctx, user.Email, "newpassword1")
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")

	// Unknown addresses succeed without sending anything
	require.NoError(t, env.auth.RequestPasswordReset(ctx, "ghost@example.com"))
	assert.Empty(t, env.mail.messages())

	require.NoError(t, env.auth.RequestPasswordReset(ctx, "Learner@example.com"))
	sent := env.mail.messages()
	require.Len(t, sent, 1)

	var reset model.PasswordResetToken
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&reset).Error)
	assert.Contains(t, sent[0].HTML, reset.Token)

	require.NoError(t, env.auth.ResetPassword(ctx, reset.Token, "brandnew123"))
	assert.ErrorIs(t, env.auth.ResetPassword(ctx, reset.Token, "again12345"), ErrInvalidCode)
	assert.ErrorIs(t, env.auth.ResetPassword(ctx, "missing", "again12345"), ErrInvalidCode)

	_, err := env.auth.Authenticate(ctx, user.Email, "brandnew123")
	assert.NoError(t, err)

	expired := model.PasswordResetToken{UserID: user.ID, Token: "expired-token", ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	require.NoError(t, env.db.Create(&expired).Error)
	assert.ErrorIs(t, env.auth.ResetPassword(ctx, "expired-token", "again12345"), ErrExpired)

	// Both the consumed and the expired token go
	removed, err := env.auth.CleanupExpiredResetTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}

func TestUpdateProfileAppliesOnlyGivenFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")

	bio := "  Backend developer  "
	updated, err := env.auth.UpdateProfile(ctx, user.ID, ProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, user.Name, updated.Name)
	require.NotNil(t, updated.Profile)
	assert.Equal(t, "Backend developer", updated.Profile.Bio)
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services/mailer"
	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *model.OutboxEvent) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, event.Topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func reloadEvent(t *testing.T, env *testEnv, id uint) model.OutboxEvent {
	t.Helper()
	var event model.OutboxEvent
	require.NoError(t, env.db.First(&event, id).Error)
	return event
}

func TestDispatcherSendsWelcomeEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	publisher := &recordingPublisher{}
	dispatcher := NewDispatcher(env.db, env.outbox, publisher)
	RegisterEventHandlers(dispatcher, env.db, env.emails)

	user, err := env.auth.Register(ctx, RegisterInput{Email: "learner@example.com", Password: "supersecret", Name: "Asha"})
	require.NoError(t, err)

	sent, err := dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{model.TopicUserRegistered}, publisher.topics)

	msgs := env.mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{user.Email}, msgs[0].To)
	assert.Equal(t, "Welcome to CodeLearn", msgs[0].Subject)
	assert.Contains(t, msgs[0].HTML, "Asha")

	// Nothing left to deliver
	sent, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	var event model.OutboxEvent
	require.NoError(t, env.db.Where("topic = ?", model.TopicUserRegistered).First(&event).Error)
	assert.Equal(t, model.OutboxStatusSent, event.Status)
	assert.Equal(t, 1, event.Attempts)
	assert.NotNil(t, event.SentAt)
}

func TestDispatcherBacksOffAndGivesUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dispatcher := NewDispatcher(env.db, env.outbox, nil)
	dispatcher.now = func() time.Time { return now }

	calls := 0
	dispatcher.Handle("test.topic", func(context.Context, *model.OutboxEvent) error {
		calls++
		return errors.New("downstream unavailable")
	})

	event, err := env.outbox.Enqueue(env.db, "test.topic", "1", map[string]int{"n": 1})
	require.NoError(t, err)
	require.NoError(t, env.db.Model(event).Update("next_attempt_at", now).Error)

	sent, err := dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	got := reloadEvent(t, env, event.ID)
	assert.Equal(t, model.OutboxStatusPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, "downstream unavailable", got.LastError)
	assert.WithinDuration(t, now.Add(30*time.Second), got.NextAttemptAt, time.Second)

	// Not due yet
	_, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	for attempt := 2; attempt <= outboxMaxAttempts; attempt++ {
		now = now.Add(time.Hour)
		_, err = dispatcher.DispatchPending(ctx)
		require.NoError(t, err)
	}

	got = reloadEvent(t, env, event.ID)
	assert.Equal(t, model.OutboxStatusFailed, got.Status)
	assert.Equal(t, outboxMaxAttempts, got.Attempts)
	assert.Equal(t, outboxMaxAttempts, calls)

	now = now.Add(time.Hour)
	_, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, outboxMaxAttempts, calls)
}

func TestDispatcherRetriesFailedEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dispatcher := NewDispatcher(env.db, env.outbox, nil)
	RegisterEventHandlers(dispatcher, env.db, env.emails)
	env.mail.result = mailer.Failed("mailbox unavailable")

	user := env.student(t, "learner@example.com")
	event, err := env.outbox.Enqueue(env.db, model.TopicUserRegistered, "1", UserEvent{UserID: user.ID, Email: user.Email})
	require.NoError(t, err)

	_, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)

	got := reloadEvent(t, env, event.ID)
	assert.Equal(t, model.OutboxStatusPending, got.Status)
	assert.Contains(t, got.LastError, "mailbox unavailable")
}

func TestDispatcherSendsPaymentEmails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dispatcher := NewDispatcher(env.db, env.outbox, nil)
	RegisterEventHandlers(dispatcher, env.db, env.emails)

	admin := env.admin(t)
	user := env.student(t, "learner@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "99"})
	res := upiCheckout(t, env, user, course)

	_, err := env.fulfillment.Approve(ctx, admin.ID, res.Transaction.ID, "looks good")
	require.NoError(t, err)

	_, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)

	var subjects []string
	for _, m := range env.mail.messages() {
		subjects = append(subjects, m.Subject)
	}
	assert.Contains(t, subjects, "Payment Approved - Order "+res.Order.OrderNumber)
}

func TestOutboxBackoffDoubles(t *testing.T) {
	assert.Equal(t, 30*time.Second, outboxBackoff(0))
	assert.Equal(t, 30*time.Second, outboxBackoff(1))
	assert.Equal(t, time.Minute, outboxBackoff(2))
	assert.Equal(t, 4*time.Minute, outboxBackoff(4))
}

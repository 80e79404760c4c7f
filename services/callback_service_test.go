package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackRequestNotifiesAdmins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	callbacks := NewCallbackService(env.db, env.outbox)
	dispatcher := NewDispatcher(env.db, env.outbox, nil)
	RegisterEventHandlers(dispatcher, env.db, env.emails)
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Title: "Go in Practice"})

	req, err := callbacks.Submit(ctx, CallbackInput{
		Name:     "Ravi",
		Email:    "Ravi@Example.com",
		Phone:    "+919876543210",
		CourseID: &course.ID,
		Message:  "Is there a batch in June?",
	})
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", req.Email)
	assert.Equal(t, CallbackStatusNew, req.Status)

	_, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	msgs := env.mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"ops@codelearn.test"}, msgs[0].To)
	assert.Equal(t, "New Callback Request from Ravi", msgs[0].Subject)
	assert.Contains(t, msgs[0].HTML, "Go in Practice")

	missing := uint(9999)
	_, err = callbacks.Submit(ctx, CallbackInput{Name: "Ravi", Email: "r@example.com", Phone: "+919876543210", CourseID: &missing})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := callbacks.UpdateStatus(ctx, req.ID, CallbackStatusContacted)
	require.NoError(t, err)
	assert.Equal(t, CallbackStatusContacted, updated.Status)

	_, err = callbacks.UpdateStatus(ctx, req.ID, "archived")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = callbacks.UpdateStatus(ctx, 9999, CallbackStatusClosed)
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := callbacks.List(ctx, CallbackStatusContacted, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	_, total, err = callbacks.List(ctx, CallbackStatusNew, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAnnouncementsRespectOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	announcements := NewAnnouncementService(env.db, env.catalog)

	owner := testutil.CreateUser(t, env.db, "owner@example.com", model.RoleInstructor)
	other := testutil.CreateUser(t, env.db, "other@example.com", model.RoleInstructor)
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{InstructorID: owner.ID})
	draft := testutil.CreateCourse(t, env.db, testutil.CourseOpts{InstructorID: owner.ID, Unpublished: true})

	a, err := announcements.Create(ctx, owner, course.ID, AnnouncementInput{Title: "Welcome", Content: "Start with section one"})
	require.NoError(t, err)
	_, err = announcements.Create(ctx, owner, draft.ID, AnnouncementInput{Title: "Soon", Content: "Coming soon"})
	require.NoError(t, err)

	_, err = announcements.Create(ctx, other, course.ID, AnnouncementInput{Title: "Hijack", Content: "nope"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = announcements.Update(ctx, other, a.ID, AnnouncementInput{Title: "Hijack", Content: "nope"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := announcements.Update(ctx, env.admin(t), a.ID, AnnouncementInput{Title: "Welcome aboard", Content: "Start here"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard", updated.Title)

	public, err := announcements.List(ctx, AnnouncementFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, a.ID, public[0].ID)

	all, err := announcements.List(ctx, AnnouncementFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, announcements.Delete(ctx, owner, a.ID))
	assert.ErrorIs(t, announcements.Delete(ctx, owner, a.ID), ErrNotFound)
}

package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseRating(t *testing.T, env *testEnv, courseID uint) string {
	t.Helper()
	var course model.Course
	require.NoError(t, env.db.First(&course, courseID).Error)
	return course.AverageRating.StringFixed(2)
}

func TestReviewsRecomputeAverage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reviews := NewReviewService(env.db, env.catalog)
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{})

	a := env.student(t, "a@example.com")
	b := env.student(t, "b@example.com")
	c := env.student(t, "c@example.com")
	for _, u := range []*model.User{a, b, c} {
		testutil.Enroll(t, env.db, u.ID, course.ID)
	}

	_, err := reviews.Upsert(ctx, a.ID, course.ID, ReviewInput{Rating: 5, Comment: " Great "})
	require.NoError(t, err)
	_, err = reviews.Upsert(ctx, b.ID, course.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)
	third, err := reviews.Upsert(ctx, c.ID, course.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "4.33", courseRating(t, env, course.ID))

	// A second review by the same user replaces the first
	updated, err := reviews.Upsert(ctx, c.ID, course.ID, ReviewInput{Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, third.ID, updated.ID)
	assert.Equal(t, "3.33", courseRating(t, env, course.ID))

	list, total, err := reviews.ListForCourse(ctx, course.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 3)

	assert.ErrorIs(t, reviews.Delete(ctx, b, updated.ID), ErrForbidden)
	require.NoError(t, reviews.Delete(ctx, c, updated.ID))
	assert.Equal(t, "4.50", courseRating(t, env, course.ID))

	assert.ErrorIs(t, reviews.Delete(ctx, env.admin(t), updated.ID), ErrNotFound)
}

func TestReviewRequiresEnrollment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reviews := NewReviewService(env.db, env.catalog)
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{})
	user := env.student(t, "a@example.com")

	_, err := reviews.Upsert(ctx, user.ID, course.ID, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = reviews.Upsert(ctx, user.ID, 9999, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reviews.Upsert(ctx, user.ID, course.ID, ReviewInput{Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)

	// Deleting the only review resets the rating to zero
	testutil.Enroll(t, env.db, user.ID, course.ID)
	review, err := reviews.Upsert(ctx, user.ID, course.ID, ReviewInput{Rating: 3})
	require.NoError(t, err)
	require.NoError(t, reviews.Delete(ctx, env.admin(t), review.ID))
	assert.Equal(t, "0.00", courseRating(t, env, course.ID))
}

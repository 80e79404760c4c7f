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

func TestEnrollFree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")
	free := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "0"})
	paid := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "10"})

	enrollment, err := env.enrollments.EnrollFree(ctx, user.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, free.ID, enrollment.CourseID)

	_, err = env.enrollments.EnrollFree(ctx, user.ID, free.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = env.enrollments.EnrollFree(ctx, user.ID, paid.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.enrollments.EnrollFree(ctx, user.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	var course model.Course
	require.NoError(t, env.db.First(&course, free.ID).Error)
	assert.Equal(t, 1, course.TotalEnrollments)
}

func TestProgressCompletesCourseAndIssuesCertificateOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "0", Lectures: 3})
	lectures := testutil.Lectures(t, env.db, course.ID)
	testutil.Enroll(t, env.db, user.ID, course.ID)

	res, err := env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: lectures[0], Completed: true, WatchedSeconds: 120})
	require.NoError(t, err)
	assert.Equal(t, "33.33", res.Enrollment.ProgressPercentage.StringFixed(2))
	assert.Nil(t, res.Certificate)

	// Watched time only grows
	res, err = env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: lectures[0], Completed: true, WatchedSeconds: 30})
	require.NoError(t, err)
	assert.True(t, res.Lecture.IsCompleted)
	assert.Equal(t, 120, res.Lecture.WatchedDuration)

	_, err = env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: lectures[1], Completed: true})
	require.NoError(t, err)
	res, err = env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: lectures[2], Completed: true})
	require.NoError(t, err)

	assert.Equal(t, "100.00", res.Enrollment.ProgressPercentage.StringFixed(2))
	assert.True(t, res.Enrollment.IsCompleted)
	require.NotNil(t, res.Certificate)
	number := res.Certificate.CertificateNumber

	res, err = env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: lectures[2], Completed: true})
	require.NoError(t, err)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, number, res.Certificate.CertificateNumber)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Certificate{}, "user_id = ?", user.ID))

	certs, err := env.enrollments.Certificates(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestProgressUncompleteLowersPercentage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "learner@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "0", Lectures: 2})
	lectures := testutil.Lectures(t, env.db, course.ID)
	testutil.Enroll(t, env.db, user.ID, course.ID)

	res, err := env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: lectures[0], Completed: true})
	require.NoError(t, err)
	assert.Equal(t, "50.00", res.Enrollment.ProgressPercentage.StringFixed(2))
	require.NotNil(t, res.Lecture.CompletedAt)
	firstCompletion := *res.Lecture.CompletedAt

	res, err = env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: lectures[0], Completed: false})
	require.NoError(t, err)
	assert.Equal(t, "0.00", res.Enrollment.ProgressPercentage.StringFixed(2))
	assert.False(t, res.Lecture.IsCompleted)
	require.NotNil(t, res.Lecture.CompletedAt)
	assert.True(t, firstCompletion.Equal(*res.Lecture.CompletedAt))

	var stored model.LectureProgress
	require.NoError(t, env.db.Where("lecture_id = ?", lectures[0]).First(&stored).Error)
	assert.False(t, stored.IsCompleted)

	// Finish the course, then take one lecture back
	for _, id := range lectures {
		_, err = env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: id, Completed: true})
		require.NoError(t, err)
	}
	res, err = env.enrollments.UpdateProgress(ctx, user.ID, ProgressInput{LectureID: lectures[1], Completed: false})
	require.NoError(t, err)
	assert.Equal(t, "50.00", res.Enrollment.ProgressPercentage.StringFixed(2))
	assert.True(t, res.Enrollment.IsCompleted)
	require.NotNil(t, res.Certificate)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Certificate{}, "user_id = ?", user.ID))
}

func TestProgressRequiresEnrollment(t *testing.T) {
	env := newTestEnv(t)
	user := env.student(t, "learner@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Lectures: 1})
	lectures := testutil.Lectures(t, env.db, course.ID)

	_, err := env.enrollments.UpdateProgress(context.Background(), user.ID, ProgressInput{LectureID: lectures[0], Completed: true})
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = env.enrollments.UpdateProgress(context.Background(), user.ID, ProgressInput{LectureID: 9999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourseWithoutLecturesStaysAtZero(t *testing.T) {
	env := newTestEnv(t)
	user := env.student(t, "learner@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{})
	enrollment := testutil.Enroll(t, env.db, user.ID, course.ID)

	pct, done, err := courseProgress(env.db, enrollment.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, pct.IsZero())
	assert.False(t, done)
}

func TestWishlistAndLiveSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	user := env.student(t, "learner@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "50"})

	_, err := env.enrollments.AddToWishlist(ctx, user.ID, course.ID)
	require.NoError(t, err)
	items, err := env.enrollments.Wishlist(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// Buying the course clears it from the wishlist
	env.fillCart(t, user, course)
	_, err = env.payments.Checkout(ctx, model.PaymentMethodCard, user, CheckoutRequest{})
	require.NoError(t, err)
	items, err = env.enrollments.Wishlist(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	start := time.Now().UTC().Add(2 * time.Hour)
	session, err := env.enrollments.CreateLiveSession(ctx, admin, LiveSessionInput{
		CourseID:   course.ID,
		Title:      "Office hours",
		MeetingURL: "https://meet.example.com/abc",
		StartsAt:   start,
	})
	require.NoError(t, err)
	assert.Equal(t, 60, session.DurationMinutes)

	upcoming, err := env.enrollments.UpcomingSessions(ctx, user.ID, time.Now().UTC(), start.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)

	stranger := env.student(t, "stranger@example.com")
	none, err := env.enrollments.UpcomingSessions(ctx, stranger.ID, time.Now().UTC(), start.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, env.enrollments.DeleteLiveSession(ctx, session.ID))
	assert.ErrorIs(t, env.enrollments.DeleteLiveSession(ctx, session.ID), ErrNotFound)
}

package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunJobRecordsOutcome(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewCronManager(db, Jobs{})

	m.runJob(job{name: "ok_job", timeout: time.Second, run: func(context.Context) (string, error) {
		return "did 3 things", nil
	}})
	m.runJob(job{name: "bad_job", timeout: time.Second, run: func(context.Context) (string, error) {
		return "", errors.New("database unreachable")
	}})

	var ok model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", "ok_job").First(&ok).Error)
	assert.Equal(t, model.CronStatusCompleted, ok.Status)
	assert.Equal(t, "did 3 things", ok.Message)
	assert.NotNil(t, ok.CompletedAt)

	var bad model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", "bad_job").First(&bad).Error)
	assert.Equal(t, model.CronStatusFailed, bad.Status)
	assert.Equal(t, "database unreachable", bad.ErrorMsg)
}

func TestSchedulesParse(t *testing.T) {
	m := NewCronManager(testutil.NewDB(t), Jobs{})
	require.NoError(t, m.registerJobs())
	assert.Len(t, m.cron.Entries(), 4)
}

func TestCleanupOldData(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "learner@example.com", model.RoleStudent)
	notifications := services.NewNotificationService(db)
	m := NewCronManager(db, Jobs{
		Auth:          services.NewAuthService(db, services.NewOutbox(), nil),
		Notifications: notifications,
	})

	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	require.NoError(t, db.Create(&model.CronJobLog{JobName: "ancient", Status: model.CronStatusCompleted, StartedAt: old}).Error)
	require.NoError(t, db.Create(&model.CronJobLog{JobName: "recent", Status: model.CronStatusCompleted, StartedAt: time.Now().UTC()}).Error)
	require.NoError(t, db.Create(&model.PasswordResetToken{UserID: user.ID, Token: "stale", ExpiresAt: old}).Error)

	msg, err := m.CleanupOldData(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "1 reset tokens")
	assert.Contains(t, msg, "1 job logs")
	assert.EqualValues(t, 1, testutil.Count(t, db, &model.CronJobLog{}, ""))
}

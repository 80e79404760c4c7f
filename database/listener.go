package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	applog "github.com/sahilchouksey/codelearn-api/utils/logger"
	"gorm.io/gorm"
)

// OutboxChannel is the NOTIFY channel raised whenever outbox rows are written
const OutboxChannel = "outbox_events"

// NotifyListener relays Postgres NOTIFY messages on one channel
type NotifyListener struct {
	listener *pq.Listener
	channel  string
}

// NewNotifyListener opens a dedicated lib/pq connection and LISTENs on channel
func NewNotifyListener(dsn, channel string) (*NotifyListener, error) {
	if dsn == "" {
		return nil, fmt.Errorf("listener requires a postgres DSN")
	}

	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			applog.L().Warn("postgres listener event", "event", ev, "error", err)
		}
	}

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, reportProblem)
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	return &NotifyListener{listener: listener, channel: channel}, nil
}

// Run calls onNotify for every notification until ctx is done. A nil
// notification means the connection was re-established and events may have
// been missed, so onNotify is called with an empty payload.
func (l *NotifyListener) Run(ctx context.Context, onNotify func(payload string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.listener.Notify:
			if n == nil {
				onNotify("")
				continue
			}
			onNotify(n.Extra)
		case <-time.After(90 * time.Second):
			go func() {
				if err := l.listener.Ping(); err != nil {
					applog.L().Warn("postgres listener ping failed", "channel", l.channel, "error", err)
				}
			}()
		}
	}
}

// Close stops listening and closes the connection
func (l *NotifyListener) Close() error {
	return l.listener.Close()
}

// Notify raises NOTIFY on channel inside tx. Postgres delivers it only when the
// transaction commits. Other dialects have no equivalent and are skipped.
func Notify(tx *gorm.DB, channel, payload string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_notify(?, ?)", channel, payload).Error
}

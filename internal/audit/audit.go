package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeSignup         = "signup"
	TypeLogin          = "login"
	TypeRefresh        = "refresh"
	TypeLogout         = "logout"
	TypeGuardRenew     = "guard.renew"
	TypePasswordChange = "password.change"
	TypeDeactivate     = "account.deactivate"
)

type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	UserID    int64     `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty"`
}

func NewEvent(typ string, success bool) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      typ,
		Success:   success,
	}
}

type Sink interface {
	Emit(ctx context.Context, event Event)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// LogSink writes each event as one structured log line.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{log: l.With(zap.String("component", "audit"))}
}

func (s *LogSink) Emit(_ context.Context, e Event) {
	s.log.Info("audit."+e.Type,
		zap.String("event_id", e.ID),
		zap.Int64("user_id", e.UserID),
		zap.String("email", e.Email),
		zap.String("ip", e.IP),
		zap.Bool("success", e.Success),
		zap.String("reason", e.Reason),
	)
}

type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}

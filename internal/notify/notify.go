// Package notify delivers best-effort user notifications. Delivery
// failures are reported to the caller but must never roll back the
// business operation that triggered them.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Kind identifies a notification template.
type Kind string

const (
	KindWelcome          Kind = "welcome"
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingCancelled Kind = "booking_cancelled"
	KindPaymentReceived  Kind = "payment_received"
	KindPaymentFailed    Kind = "payment_failed"
)

// Notification is a message addressed to one user.
type Notification struct {
	UserID  int64
	Email   string
	Kind    Kind
	Subject string
	Body    string
	Params  map[string]string
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, n *Notification) error
}

// LogSender writes notifications to the application log. It stands in
// for a mail or SMS transport in development and test deployments.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, n *Notification) error {
	s.logger.Info("notification sent",
		zap.Int64("user_id", n.UserID),
		zap.String("email", n.Email),
		zap.String("kind", string(n.Kind)),
		zap.String("subject", n.Subject),
	)
	return nil
}

// MockSender records notifications for tests.
type MockSender struct {
	mu   sync.Mutex
	sent []*Notification
	Err  error
}

// NewMockSender creates a recording sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send implements Sender.
func (s *MockSender) Send(_ context.Context, n *Notification) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

// Sent returns a copy of the recorded notifications.
func (s *MockSender) Sent() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Notification, len(s.sent))
	copy(out, s.sent)
	return out
}

// Last returns the most recent notification, or nil.
func (s *MockSender) Last() *Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

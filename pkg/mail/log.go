package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/charlesng35/authcore/pkg/logger"
)

// LogMailer writes outbound messages to the application log instead of delivering
// them. It is used in development when SMTP is not configured.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer returns a Mailer that logs every message at info level.
func NewLogMailer() *LogMailer {
	return &LogMailer{log: logger.WithModule("mail")}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("email captured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

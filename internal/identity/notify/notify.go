// Package notify delivers password-reset instructions. The log dispatcher
// here is the development stand-in for a mail or SMS provider; swap it out
// at the wiring point in app.
package notify

import (
	"context"
	"log/slog"

	"github.com/innkeep/innkeep/internal/identity/service"
)

// LogNotifier writes delivery records to the log. The plaintext token and
// OTP only appear at debug level; production log levels never see them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) SendResetInstructions(ctx context.Context, in service.ResetInstructions) error {
	n.logger.Info("reset instructions dispatched",
		"email", in.Email.String(),
		"subject_type", in.SubjectType.String(),
		"request_id", in.RequestID,
		"expires_at", in.ExpiresAt,
		"otp_expires_at", in.OTPExpiresAt,
	)

	// Development convenience only. Debug is never enabled in production.
	n.logger.Debug("reset secrets",
		"request_id", in.RequestID,
		"token", in.Token,
		"otp", in.OTP,
	)
	return nil
}

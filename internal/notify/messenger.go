// Package notify is the outbound patient-messaging collaborator. The rest of
// the system only depends on Messenger; delivery failures are reported as
// errors and are never fatal to callers.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Messenger sends one text message to one destination and returns the
// gateway's message ID on success.
type Messenger interface {
	Send(ctx context.Context, to, text string) (messageID string, err error)
}

// Disabled is the Messenger used when no gateway API key is configured. It
// logs the would-be message and reports success so dev environments can run
// the full flow without a gateway account.
type Disabled struct {
	Log zerolog.Logger
}

func (d Disabled) Send(ctx context.Context, to, text string) (string, error) {
	d.Log.Info().Str("to", to).Str("text", text).Msg("sms disabled, message dropped")
	return "disabled", nil
}

package transport

import "context"

// ChatTarget identifies the destination chat (and optional forum topic).
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Adapter is the messaging-channel collaborator. The notifier only
// depends on it being started (authenticated/ready) before cycles run
// and stopped cleanly on shutdown.
type Adapter interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) error
	// SendPhoto sends an image with a caption. Caption length limits are
	// the adapter's problem, not the caller's.
	SendPhoto(ctx context.Context, to ChatTarget, image []byte, caption string, opt *SendOptions) error
	// SendTyping signals a "composing" indicator. Best-effort by contract.
	SendTyping(ctx context.Context, to ChatTarget) error
}

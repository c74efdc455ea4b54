package adapter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "ctfbot/internal/transport"
	logx "ctfbot/pkg/logx"
)

const (
	// Telegram hard limits (with a little slack for entity expansion).
	textLimit    = 4000
	captionLimit = 1000
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Adapter sends messages through the Telegram Bot API via telebot.
//
// This bot is outbound-only: it never consumes updates, so there is no
// long-poll loop to supervise. Start() authenticates (getMe) and that is
// the "ready" signal the notifier waits for.
type Adapter struct {
	cfg Config
	log logx.Logger

	mu  sync.Mutex
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, log: log}, nil
}

func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bot != nil {
		return nil
	}

	timeout := a.cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  a.cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return err
	}
	a.bot = b
	a.log.Info("telegram ready", logx.String("bot", b.Me.Username))
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	b := a.bot
	a.bot = nil
	a.mu.Unlock()

	if b == nil {
		return nil
	}
	a.log.Info("telegram stopped")
	return nil
}

func (a *Adapter) current() (*tele.Bot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bot == nil {
		return nil, errors.New("telegram adapter not started")
	}
	return a.bot, nil
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error {
	b, err := a.current()
	if err != nil {
		return err
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}

	chunks := splitText(text, textLimit)
	chat := &tele.Chat{ID: to.ChatID}
	for _, chunk := range chunks {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		sendOpt := &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		}
		if _, err := b.Send(chat, chunk, sendOpt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) SendPhoto(ctx context.Context, to kit.ChatTarget, image []byte, caption string, opt *kit.SendOptions) error {
	b, err := a.current()
	if err != nil {
		return err
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	if err := ctxErr(ctx); err != nil {
		return err
	}

	// Telegram captions are much shorter than messages; overflow goes out
	// as follow-up text.
	head := caption
	var rest string
	if chunks := splitText(caption, captionLimit); len(chunks) > 1 {
		head = chunks[0]
		rest = strings.Join(chunks[1:], "\n")
	}

	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(image)),
		Caption: head,
	}
	sendOpt := &tele.SendOptions{
		ParseMode: opt.ParseMode,
		ThreadID:  to.ThreadID,
	}
	if _, err := b.Send(&tele.Chat{ID: to.ChatID}, photo, sendOpt); err != nil {
		return err
	}

	if rest != "" {
		return a.SendText(ctx, to, rest, opt)
	}
	return nil
}

func (a *Adapter) SendTyping(ctx context.Context, to kit.ChatTarget) error {
	b, err := a.current()
	if err != nil {
		return err
	}
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if to.ThreadID != 0 {
		return b.Notify(&tele.Chat{ID: to.ChatID}, tele.Typing, to.ThreadID)
	}
	return b.Notify(&tele.Chat{ID: to.ChatID}, tele.Typing)
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// splitText splits long messages into chunks that are safe to send,
// preferring newline boundaries so announcements don't break mid-line.
func splitText(s string, limit int) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		// Prefer splitting on a newline near the end of the window, but
		// avoid producing tiny fragments.
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimRight(string(rs[start:end]), "\n")
		out = append(out, chunk)

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

package chatclient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/campushub/internal/logging"
	"github.com/Domenick1991/campushub/internal/service/messaging"
	"go.uber.org/zap"
)

const DefaultInterval = 4 * time.Second

// ErrEmptyReply is returned for blank replies; no request is made.
var ErrEmptyReply = errors.New("message cannot be empty")

type FeedAPI interface {
	Feed(ctx context.Context, threadID, afterID int64) ([]messaging.FeedItem, error)
	Reply(ctx context.Context, threadID int64, content string) (*messaging.FeedItem, error)
}

// Renderer displays a message. It is called once per message id.
type Renderer interface {
	Render(msg messaging.FeedItem)
}

// Warner shows inline validation feedback.
type Warner interface {
	Warn(text string)
}

// FallbackSubmitter performs the synchronous form submission used when the
// background reply fails.
type FallbackSubmitter interface {
	SubmitForm(ctx context.Context, threadID int64, content string) error
}

// Poller keeps one thread view up to date.
type Poller struct {
	api      FeedAPI
	threadID int64
	interval time.Duration
	renderer Renderer
	warner   Warner
	fallback FallbackSubmitter
	logger   *zap.Logger

	mu       sync.Mutex
	lastID   int64
	rendered map[int64]struct{}
	fellBack bool
	cancel   context.CancelFunc
	done     chan struct{}
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithWarner(w Warner) PollerOption {
	return func(p *Poller) {
		p.warner = w
	}
}

func WithFallback(f FallbackSubmitter) PollerOption {
	return func(p *Poller) {
		p.fallback = f
	}
}

func WithLogger(l *zap.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logging.OrNop(l)
	}
}

func NewPoller(api FeedAPI, threadID int64, renderer Renderer, opts ...PollerOption) *Poller {
	p := &Poller{
		api:      api,
		threadID: threadID,
		interval: DefaultInterval,
		renderer: renderer,
		logger:   zap.NewNop(),
		rendered: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Seed marks messages that are already on screen.
func (p *Poller) Seed(items []messaging.FeedItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range items {
		p.rendered[item.MessageID] = struct{}{}
		if item.MessageID > p.lastID {
			p.lastID = item.MessageID
		}
	}
}

// LastID is the watermark sent as after_id.
func (p *Poller) LastID() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastID
}

// Start launches the polling loop. Calling it again while running, or after
// the fallback path was taken, does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.fellBack {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop cancels the loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// one fetch at a time: the next tick waits for this one
			if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn("message poll failed, retrying", zap.Int64("thread_id", p.threadID), zap.Error(err))
			}
		}
	}
}

// PollOnce fetches messages after the watermark and renders the new ones.
// Only ids returned by the feed move the watermark.
func (p *Poller) PollOnce(ctx context.Context) error {
	items, err := p.api.Feed(ctx, p.threadID, p.LastID())
	if err != nil {
		return err
	}
	for _, item := range items {
		p.show(item)
		p.advance(item.MessageID)
	}
	return nil
}

func (p *Poller) advance(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id > p.lastID {
		p.lastID = id
	}
}

// show renders item unless its id is already on screen.
func (p *Poller) show(item messaging.FeedItem) {
	p.mu.Lock()
	if _, seen := p.rendered[item.MessageID]; seen {
		p.mu.Unlock()
		return
	}
	p.rendered[item.MessageID] = struct{}{}
	p.mu.Unlock()

	p.renderer.Render(item)
}

// Reply sends content in the background and renders the echo. The echo is
// deduplicated but leaves the watermark alone, so peer messages stored before
// it are still fetched. When the background request fails the poller stops
// and the content goes through the fallback form submission once.
func (p *Poller) Reply(ctx context.Context, content string) error {
	p.mu.Lock()
	fellBack := p.fellBack
	p.mu.Unlock()
	if fellBack {
		p.logger.Debug("reply ignored after fallback submission", zap.Int64("thread_id", p.threadID))
		return nil
	}

	if strings.TrimSpace(content) == "" {
		if p.warner != nil {
			p.warner.Warn("Message cannot be empty.")
		}
		return ErrEmptyReply
	}

	msg, err := p.api.Reply(ctx, p.threadID, content)
	if err == nil {
		if msg != nil {
			p.show(*msg)
		}
		return nil
	}

	p.logger.Warn("background reply failed, submitting form", zap.Int64("thread_id", p.threadID), zap.Error(err))
	p.Stop()

	p.mu.Lock()
	if p.fellBack {
		p.mu.Unlock()
		return nil
	}
	p.fellBack = true
	p.mu.Unlock()

	if p.fallback == nil {
		return err
	}
	return p.fallback.SubmitForm(ctx, p.threadID, content)
}

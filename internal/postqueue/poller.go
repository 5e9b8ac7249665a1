package postqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storieswithjai/ghostflow/pkg/collab"
)

// Poller periodically scans the scheduled-post store for due posts and
// delivers them through the publisher. Each row is marked PUBLISHED or
// FAILED exactly once; the status update is the mutual-exclusion point, so
// two pollers sharing a store cannot double-publish a row they both saw.
type Poller struct {
	store    collab.ScheduledPostStore
	pub      collab.Publisher
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewPoller creates a Poller. interval defaults to one minute when zero.
func NewPoller(store collab.ScheduledPostStore, pub collab.Publisher, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		store:    store,
		pub:      pub,
		interval: interval,
		log:      log,
	}
}

// Start launches the polling goroutine. It returns an error if the poller
// is already running. Stop cancels the loop and waits for it to exit.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("postqueue: poller already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.loop(ctx)
	}()

	p.log.Info().Dur("interval", p.interval).Msg("scheduled-post poller started")
	return nil
}

// Stop cancels the polling goroutine and waits for it to exit.
// It is safe to call on a stopped poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.log.Info().Msg("scheduled-post poller stopped")
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessDue(ctx, time.Now()); err != nil {
				p.log.Error().Err(err).Msg("scheduled-post scan failed")
			}
		}
	}
}

// ProcessDue publishes every pending post due at or before now. It is the
// single tick of the polling loop, exposed so callers and tests can drive it
// directly.
func (p *Poller) ProcessDue(ctx context.Context, now time.Time) error {
	due, err := p.store.DuePosts(ctx, now)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	p.log.Info().Int("count", len(due)).Msg("processing due posts")

	for _, post := range due {
		res, err := p.pub.PublishNow(ctx, post.DraftText, post.ImageURL)
		if err != nil {
			p.log.Error().Err(err).Str("post", post.ID).Msg("scheduled publish failed")
			if markErr := p.store.Mark(ctx, post.ID, collab.PostFailed, err.Error()); markErr != nil {
				p.log.Error().Err(markErr).Str("post", post.ID).Msg("failed to mark post FAILED")
			}
			continue
		}

		p.log.Info().Str("post", post.ID).Str("published_id", res.ID).Msg("scheduled post published")
		if markErr := p.store.Mark(ctx, post.ID, collab.PostPublished, ""); markErr != nil {
			p.log.Error().Err(markErr).Str("post", post.ID).Msg("failed to mark post PUBLISHED")
		}
	}

	return nil
}

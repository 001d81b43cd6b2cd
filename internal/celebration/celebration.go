// Package celebration runs the cancellable multi-phase sequence shown when a
// countdown reaches its target.
package celebration

import (
	"context"
	"errors"
	"sync"

	"github.com/alexisbeaulieu97/countdown/internal/logger"
	"github.com/alexisbeaulieu97/countdown/internal/tracker"
)

// Phase is one asynchronous step of a sequence. Run should return promptly
// once ctx is done.
type Phase struct {
	Name string
	Run  func(ctx context.Context) error
}

// Controller owns the single active sequence of a renderer. Starting a new
// sequence cancels the previous one first.
type Controller struct {
	log *logger.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	active bool

	wg sync.WaitGroup
}

// NewController creates an idle controller.
func NewController(log *logger.Logger) *Controller {
	return &Controller{log: log}
}

// Start cancels any running sequence and begins phases in a new goroutine.
// The returned channel closes when the new sequence ends, whether it
// completed or was cancelled.
func (c *Controller) Start(parent context.Context, phases []Phase) <-chan struct{} {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.active = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(ctx, gen, phases, done)
	return done
}

func (c *Controller) run(ctx context.Context, gen uint64, phases []Phase, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)
	defer c.finish(gen)

	for _, phase := range phases {
		if ctx.Err() != nil {
			return
		}
		if err := phase.Run(ctx); err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) && !errors.Is(err, tracker.ErrClosed) {
				c.log.WithField("phase", phase.Name).Error(err, "celebration phase failed")
			}
			return
		}
	}
}

func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.active = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Cancel signals the running sequence, if any, to stop at its next phase
// boundary.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.active = false
}

// Active reports whether a sequence is running and not cancelled.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Wait blocks until every started sequence goroutine has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

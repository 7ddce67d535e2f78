// Package enhance rewrites short story passages with a language model.
package enhance

import (
	"context"
	"log"
	"sync"
	"time"

	"talespin/internal/game"
)

// Result is a finished generation. Err is set when the generator failed;
// superseded and cancelled requests produce no Result at all.
type Result struct {
	NodeID string
	Text   string
	Err    error
}

// Coordinator runs at most one generation at a time for a session. A new
// request cancels the one in flight.
type Coordinator struct {
	gen     Generator
	timeout time.Duration
	log     *log.Logger

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	closed  bool
	done    chan struct{}
	results chan Result
	wg      sync.WaitGroup
}

// NewCoordinator returns a coordinator that gives each request timeout to
// finish; zero means no limit.
func NewCoordinator(gen Generator, timeout time.Duration, logger *log.Logger) *Coordinator {
	return &Coordinator{
		gen:     gen,
		timeout: timeout,
		log:     logger,
		done:    make(chan struct{}),
		results: make(chan Result, 1),
	}
}

// Results delivers finished generations. It is closed by Close.
func (c *Coordinator) Results() <-chan Result {
	return c.results
}

// Listener adapts the coordinator to a session subscription.
func (c *Coordinator) Listener() game.Listener {
	return func(ev game.Event) {
		if ev.Kind == game.EventEnhancementRequested && ev.Enhancement != nil {
			c.Request(*ev.Enhancement)
		}
	}
}

// Request starts generating text for req, cancelling any earlier request.
func (c *Coordinator) Request(req game.EnhancementRequest) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	id := c.seq
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer cancel()
		text, err := c.gen.Generate(ctx, req)

		c.mu.Lock()
		current := id == c.seq && !c.closed
		c.mu.Unlock()
		if !current {
			c.logf("dropping superseded enhancement for %q", req.NodeID)
			return
		}
		if err != nil {
			c.logf("enhancement for %q failed: %v", req.NodeID, err)
		}
		select {
		case c.results <- Result{NodeID: req.NodeID, Text: text, Err: err}:
		case <-c.done:
		}
	}()
}

// Apply drains Results into s until the channel closes. lock, when not nil,
// is held around each ApplyEnhancement so callers can share s with other
// goroutines.
func (c *Coordinator) Apply(s *game.Session, lock sync.Locker) {
	for r := range c.results {
		if r.Err != nil {
			continue
		}
		if lock != nil {
			lock.Lock()
		}
		s.ApplyEnhancement(r.NodeID, r.Text)
		if lock != nil {
			lock.Unlock()
		}
	}
}

// Close cancels any request in flight, waits for it and closes Results.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	close(c.done)
	c.mu.Unlock()
	c.wg.Wait()
	close(c.results)
}

func (c *Coordinator) logf(format string, args ...any) {
	if c.log != nil {
		c.log.Printf(format, args...)
	}
}

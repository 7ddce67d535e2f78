package web

import (
	"context"
	"fmt"
	"time"
)

const defaultIdleTimeout = 30 * time.Minute

// sessionLister is implemented by stores that can enumerate their ids,
// such as session.MemoryStore. Sweep and Close need it.
type sessionLister interface {
	List(ctx context.Context) ([]string, error)
}

func (l *Live) touch(t time.Time) {
	l.seen.Store(t.UnixNano())
}

func (l *Live) lastSeen() time.Time {
	return time.Unix(0, l.seen.Load())
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) idleTimeout() time.Duration {
	if s.IdleTimeout > 0 {
		return s.IdleTimeout
	}
	return defaultIdleTimeout
}

// Sweep closes and forgets every session idle for longer than IdleTimeout.
// It reports how many were evicted.
func (s *Server) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.idleTimeout())
	return s.dropWhere(ctx, func(l *Live) bool { return !l.lastSeen().After(cutoff) })
}

// Close ends every session. Call it once the HTTP server has stopped.
func (s *Server) Close(ctx context.Context) error {
	_, err := s.dropWhere(ctx, func(*Live) bool { return true })
	return err
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.logf("sweep: %v", err)
			} else if n > 0 {
				s.logf("evicted %d idle sessions", n)
			}
		}
	}
}

func (s *Server) dropWhere(ctx context.Context, match func(*Live) bool) (int, error) {
	lister, ok := s.Sessions.(sessionLister)
	if !ok {
		return 0, nil
	}
	ids, err := lister.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	n := 0
	for _, id := range ids {
		live, ok, err := s.Sessions.Get(ctx, id)
		if err != nil {
			return n, err
		}
		if !ok || !match(live) {
			continue
		}
		if err := s.drop(ctx, id, live); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// drop stops live's background work and removes it from the store.
func (s *Server) drop(ctx context.Context, id string, live *Live) error {
	live.close()
	return s.Sessions.Delete(ctx, id)
}

package repl

import (
	"context"
	"fmt"
	"io"

	"github.com/slidingsync/ssync-go/pkg/config"
	"github.com/slidingsync/ssync-go/pkg/coordinator"
	"github.com/slidingsync/ssync-go/pkg/engine"
)

// Boot builds a coordinator over a fresh in-memory engine, configures it
// for cfg and registers the configured lists in order. Rooms in cfg start
// out cached.
func Boot(ctx context.Context, cfg *config.Session, out io.Writer, opts ...coordinator.Option) (*Session, error) {
	mem := engine.NewMemory()
	opts = append([]coordinator.Option{coordinator.WithPollTimeout(cfg.PollTimeout)}, opts...)
	coord := coordinator.New(mem.Configure, opts...)

	cache := NewCache(cfg.UserID)
	cache.Add(cfg.Rooms...)

	if _, err := coord.Configure(cache, cfg.ProxyURL); err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}

	s := NewSession(coord, mem, cache, out)
	for _, l := range cfg.Lists {
		patch, err := l.Patch()
		if err != nil {
			coord.Close()
			return nil, err
		}
		if err := s.registerList(ctx, l.Index, patch); err != nil {
			coord.Close()
			return nil, fmt.Errorf("list %d: %w", l.Index, err)
		}
	}
	return s, nil
}

// Close detaches the coordinator from the engine.
func (s *Session) Close() error {
	return s.coord.Close()
}

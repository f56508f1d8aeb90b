package service

import (
	"context"

	"github.com/inkbin/inkbin/internal/domain"
)

// RemovalEvent is published when a paste is removed or deleted, so features
// referencing pastes from outside the engine (favorites, comments, reports)
// can cascade without importing engine internals.
type RemovalEvent struct {
	Paste  domain.Paste
	Purged bool
	Reason string
}

// RemovalListener receives removal and deletion notifications. Listeners run
// synchronously after the state change commits; they must not block for long.
type RemovalListener func(ctx context.Context, ev RemovalEvent)

// OnRemoval subscribes a listener to removal and deletion events. Not safe to
// call concurrently with operations; register listeners during wiring.
func (s *Service) OnRemoval(l RemovalListener) {
	s.listeners = append(s.listeners, l)
}

func (s *Service) notifyRemoval(ctx context.Context, ev RemovalEvent) {
	for _, l := range s.listeners {
		l(ctx, ev)
	}
}

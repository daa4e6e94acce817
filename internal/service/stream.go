package service

import (
	"context"
	"errors"

	"github.com/avasiliev/muscletrack/internal/model"
)

var errStreamClosed = errors.New("auth state stream closed")

// firstState waits for exactly one event from an auth-state stream. The
// caller cancels the stream right after, which keeps the one-shot
// unsubscribe of the session bootstrap structurally obvious.
func firstState(ctx context.Context, states <-chan model.AuthState) (model.AuthState, error) {
	select {
	case <-ctx.Done():
		return model.AuthState{}, ctx.Err()
	case state, ok := <-states:
		if !ok {
			return model.AuthState{}, errStreamClosed
		}
		return state, nil
	}
}

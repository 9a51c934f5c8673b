package testsupport

import (
	"context"
	"sync"

	"linkq/internal/saveapi"
)

// SaveOutcome scripts one StubSaver response.
type SaveOutcome struct {
	Result saveapi.Result
	Err    error
}

// StubSaver is a scripted saveapi.Saver. Outcomes are consumed in order;
// once exhausted, every call succeeds with an empty result. An optional
// Gate channel makes Save block until the channel is closed, which lets
// tests hold a delivery pass open while poking at concurrent state.
type StubSaver struct {
	mu       sync.Mutex
	outcomes []SaveOutcome
	calls    []saveapi.Request

	// Gate, when non-nil, blocks each Save until closed or the context ends.
	Gate chan struct{}
}

// Script appends outcomes to be returned by subsequent Save calls.
func (s *StubSaver) Script(outcomes ...SaveOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcomes...)
}

// Calls returns a copy of every request seen so far.
func (s *StubSaver) Calls() []saveapi.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]saveapi.Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// Save implements saveapi.Saver.
func (s *StubSaver) Save(ctx context.Context, req saveapi.Request) (saveapi.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return saveapi.Result{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outcomes) == 0 {
		return saveapi.Result{}, nil
	}
	outcome := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return outcome.Result, outcome.Err
}

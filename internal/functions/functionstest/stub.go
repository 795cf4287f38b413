// Package functionstest provides an in-memory functions.Caller for tests.
package functionstest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Handler produces the result of one remote function. The returned value is
// round-tripped through JSON, exactly like a real response.
type Handler func(payload json.RawMessage) (any, error)

// Call records one invocation.
type Call struct {
	Name    string
	Payload json.RawMessage
}

// Stub is a functions.Caller backed by handlers keyed by function name.
type Stub struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

func NewStub() *Stub {
	return &Stub{handlers: make(map[string]Handler)}
}

// On registers a handler for name.
func (s *Stub) On(name string, h Handler) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
	return s
}

// Returns registers a fixed result for name.
func (s *Stub) Returns(name string, result any) *Stub {
	return s.On(name, func(json.RawMessage) (any, error) { return result, nil })
}

// Fails registers a fixed error for name.
func (s *Stub) Fails(name string, err error) *Stub {
	return s.On(name, func(json.RawMessage) (any, error) { return nil, err })
}

// Calls returns a copy of the recorded invocations.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Stub) Call(ctx context.Context, name string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Name: name, Payload: raw})
	h, ok := s.handlers[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("no handler for function %q", name)
	}
	result, err := h(raw)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

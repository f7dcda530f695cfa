package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Action executes side effects during a transition. Returning an error prevents the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass for transition to proceed
	Actions []Action[S, E] // Executed in order before the new state is returned
}

// Machine is a transition table keyed by source state and event.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	transitions map[S]map[E][]Transition[S, E]
	states      map[S]struct{}
}

// New creates an empty machine.
func New[S, E comparable]() *Machine[S, E] {
	return &Machine[S, E]{
		transitions: make(map[S]map[E][]Transition[S, E]),
		states:      make(map[S]struct{}),
	}
}

// AddTransition registers a transition. Zero-valued states or events are rejected.
func (m *Machine[S, E]) AddTransition(from, to S, event E, guards []Guard[S, E], actions []Action[S, E]) error {
	var (
		zeroState S
		zeroEvent E
	)
	if from == zeroState || to == zeroState || event == zeroEvent {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E][]Transition[S, E])
	}
	// Multiple transitions allowed for same from/event to support guard-based branching
	m.transitions[from][event] = append(m.transitions[from][event], Transition[S, E]{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	m.states[from] = struct{}{}
	m.states[to] = struct{}{}
	return nil
}

// Fire returns the state event leads to from the given state.
func (m *Machine[S, E]) Fire(ctx context.Context, from S, event E, data any) (S, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.match(ctx, from, event, data)
	if err != nil {
		return from, err
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}
	return t.To, nil
}

// CanFire reports whether Fire would succeed, without running actions.
func (m *Machine[S, E]) CanFire(ctx context.Context, from S, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.match(ctx, from, event, data)
	return err == nil
}

// Terminal reports whether s is a known state with no outgoing transitions.
func (m *Machine[S, E]) Terminal(s S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, known := m.states[s]; !known {
		return false
	}
	return len(m.transitions[s]) == 0
}

// match must be called with m.mu held.
func (m *Machine[S, E]) match(ctx context.Context, from S, event E, data any) (*Transition[S, E], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return nil, NewErrNoTransitionAvailable(from, event)
	}

	// First transition with passing guards wins (enables priority ordering)
	for i, t := range candidates {
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, from, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i], nil
		}
	}
	return nil, NewErrTransitionRejected(from, event)
}

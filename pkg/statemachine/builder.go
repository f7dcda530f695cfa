package statemachine

import (
	"errors"
	"fmt"
)

// Builder provides a fluent API for building machines. Errors from Add are
// collected and returned by Build.
type Builder[S, E comparable] struct {
	machine *Machine[S, E]
	errs    []error

	from    S
	event   E
	to      S
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// NewBuilder creates a new machine builder.
func NewBuilder[S, E comparable]() *Builder[S, E] {
	return &Builder[S, E]{machine: New[S, E]()}
}

// From sets the starting state for a transition.
func (b *Builder[S, E]) From(state S) *Builder[S, E] {
	b.reset()
	b.from = state
	return b
}

// When sets the event that triggers a transition.
func (b *Builder[S, E]) When(event E) *Builder[S, E] {
	b.event = event
	return b
}

// To sets the target state for a transition.
func (b *Builder[S, E]) To(state S) *Builder[S, E] {
	b.to = state
	return b
}

// WithGuard adds a guard function to the current transition.
func (b *Builder[S, E]) WithGuard(guard Guard[S, E]) *Builder[S, E] {
	b.guards = append(b.guards, guard)
	return b
}

// WithAction adds an action function to the current transition.
func (b *Builder[S, E]) WithAction(action Action[S, E]) *Builder[S, E] {
	b.actions = append(b.actions, action)
	return b
}

// Add finalizes the current transition.
func (b *Builder[S, E]) Add() *Builder[S, E] {
	if err := b.machine.AddTransition(b.from, b.to, b.event, b.guards, b.actions); err != nil {
		b.errs = append(b.errs, fmt.Errorf("%v -> %v on %v: %w", b.from, b.to, b.event, err))
	}
	b.reset()
	return b
}

// Build returns the constructed machine or every error collected by Add.
func (b *Builder[S, E]) Build() (*Machine[S, E], error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.machine, nil
}

// MustBuild is like Build but panics on error. Use it for package-level tables.
func (b *Builder[S, E]) MustBuild() *Machine[S, E] {
	m, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build state machine: %v", err))
	}
	return m
}

func (b *Builder[S, E]) reset() {
	var (
		zeroState S
		zeroEvent E
	)
	b.from = zeroState
	b.event = zeroEvent
	b.to = zeroState
	b.guards = nil
	b.actions = nil
}

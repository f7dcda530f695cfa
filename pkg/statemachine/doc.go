// Package statemachine provides a typed transition table for entities whose
// state is persisted elsewhere.
//
// A Machine does not hold a current state. Callers load an entity, ask the
// machine where an event leads from the stored state, and persist the result:
//
//	machine := statemachine.NewBuilder[OrderState, OrderEvent]().
//	    From(Draft).When(Submit).To(InReview).Add().
//	    From(InReview).When(Approve).To(Approved).WithGuard(isReviewer).Add().
//	    MustBuild()
//
//	next, err := machine.Fire(ctx, order.State, Approve, order)
//
// # Guards and Actions
//
// Guards veto a transition based on runtime data. Several transitions may be
// registered for the same state and event; the first one whose guards all
// pass wins. Actions run after the guards and before the new state is
// returned; an action error aborts the transition.
//
// # Error Handling
//
// Fire distinguishes an undefined transition from one blocked by guards:
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* ... */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* ... */ }
//
// # Concurrency
//
// A Machine is safe for concurrent use. Transitions are usually registered
// once at package init and only read afterwards.
package statemachine

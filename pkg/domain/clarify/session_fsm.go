package clarify

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration. Kept as untyped string constants
// for statekit.StateID compatibility.
const (
	StateIdle           = "idle"
	StateAwaitingAnswer = "awaiting_answer"
	StateValidating     = "validating"
	StateIntegrating    = "integrating"
	StatePersisted      = "persisted"
	StateTerminated     = "terminated"
)

// Events accepted by the session machine.
const (
	EventAsk     = "ask"     // idle → awaiting_answer: one question goes out
	EventSubmit  = "submit"  // awaiting_answer → validating
	EventReject  = "reject"  // validating → awaiting_answer: re-prompt, same slot
	EventAccept  = "accept"  // validating → integrating
	EventPersist = "persist" // integrating → persisted
	EventNext    = "next"    // persisted → idle: loop for the next question
	EventStop    = "stop"    // idle | awaiting_answer | persisted → terminated
)

// SessionContext carries the machine's identifying data.
type SessionContext struct {
	SessionID string
}

// SessionMachine enforces the strictly sequential clarification loop: one
// question in flight at a time, no new question while one is outstanding, and
// persistence before the loop may continue.
type SessionMachine struct {
	interpreter *statekit.Interpreter[SessionContext]
}

func NewSessionMachine(sessionID string) (*SessionMachine, error) {
	builder := statekit.NewMachine[SessionContext]("clarify-session").
		WithInitial(statekit.StateID(StateIdle)).
		WithContext(SessionContext{SessionID: sessionID})

	builder.State(StateIdle).
		On(EventAsk).Target(StateAwaitingAnswer).
		On(EventStop).Target(StateTerminated).
		Done()

	builder.State(StateAwaitingAnswer).
		On(EventSubmit).Target(StateValidating).
		On(EventStop).Target(StateTerminated).
		Done()

	builder.State(StateValidating).
		On(EventAccept).Target(StateIntegrating).
		On(EventReject).Target(StateAwaitingAnswer).
		Done()

	builder.State(StateIntegrating).
		On(EventPersist).Target(StatePersisted).
		Done()

	builder.State(StatePersisted).
		On(EventNext).Target(StateIdle).
		On(EventStop).Target(StateTerminated).
		Done()

	builder.State(StateTerminated).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build session machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &SessionMachine{interpreter: interpreter}, nil
}

// Transition fires an event and reports whether it was legal in the current
// state. An illegal event leaves the state unchanged and returns an error.
func (sm *SessionMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	// Self-loops do not exist in this machine, so an unchanged state means
	// the event was not accepted.
	if before == after {
		return fmt.Errorf("event %q is not allowed in state %q", event, before)
	}
	return nil
}

func (sm *SessionMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// Terminated reports whether the loop has reached its final state.
func (sm *SessionMachine) Terminated() bool {
	return sm.Current() == StateTerminated
}

// AwaitingAnswer reports whether a question is currently outstanding.
func (sm *SessionMachine) AwaitingAnswer() bool {
	return sm.Current() == StateAwaitingAnswer
}

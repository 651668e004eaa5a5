package frames

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// LifecycleState is the tracking state of one tab.
type LifecycleState string

const (
	// StateAttached: wrapper exists, control session not yet established.
	StateAttached LifecycleState = "attached"
	// StateTracking: root frame known, navigation events are followed.
	StateTracking LifecycleState = "tracking"
	// StateClosed: tab closed. Final.
	StateClosed LifecycleState = "closed"
)

const (
	eventTrack    statekit.EventType = "TRACK"
	eventNavigate statekit.EventType = "NAVIGATE"
	eventClose    statekit.EventType = "CLOSE"
)

// lifecycleContext is the data carried by a tab's machine.
type lifecycleContext struct {
	RootFrameID string
	Navigations int
	ClosedAt    time.Time
}

// framePayload is the payload of TRACK and NAVIGATE.
type framePayload struct {
	FrameID string
}

func bindFrame(ctx **lifecycleContext, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if p, ok := event.Payload.(framePayload); ok {
		(*ctx).RootFrameID = p.FrameID
	}
}

func rebindFrame(ctx **lifecycleContext, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if p, ok := event.Payload.(framePayload); ok {
		(*ctx).RootFrameID = p.FrameID
		(*ctx).Navigations++
	}
}

func markClosed(ctx **lifecycleContext, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).ClosedAt = time.Now()
}

var (
	machineOnce sync.Once
	machine     *statekit.MachineConfig[*lifecycleContext]
	machineErr  error
)

// lifecycleMachine builds the tab statechart once.
func lifecycleMachine() (*statekit.MachineConfig[*lifecycleContext], error) {
	machineOnce.Do(func() {
		machine, machineErr = statekit.NewMachine[*lifecycleContext]("tab").
			WithInitial(statekit.StateID(StateAttached)).
			WithContext(&lifecycleContext{}).
			WithAction("bindFrame", bindFrame).
			WithAction("rebindFrame", rebindFrame).
			WithAction("markClosed", markClosed).
			State(statekit.StateID(StateAttached)).
				On(eventTrack).Target(statekit.StateID(StateTracking)).Do("bindFrame").
				On(eventNavigate).Target(statekit.StateID(StateTracking)).Do("bindFrame").
				On(eventClose).Target(statekit.StateID(StateClosed)).Do("markClosed").
				Done().
			State(statekit.StateID(StateTracking)).
				On(eventNavigate).Target(statekit.StateID(StateTracking)).Do("rebindFrame").
				On(eventClose).Target(statekit.StateID(StateClosed)).Do("markClosed").
				Done().
			State(statekit.StateID(StateClosed)).
				Final().
				Done().
			Build()
	})
	return machine, machineErr
}

// accepted lists the events each state handles. Anything else is dropped
// before it reaches the interpreter.
var accepted = map[LifecycleState]map[statekit.EventType]bool{
	StateAttached: {eventTrack: true, eventNavigate: true, eventClose: true},
	StateTracking: {eventNavigate: true, eventClose: true},
}

// lifecycle drives one tab's machine. Callers hold the owning Page's lock.
type lifecycle struct {
	interp *statekit.Interpreter[*lifecycleContext]
	ctx    *lifecycleContext
}

func newLifecycle() (*lifecycle, error) {
	m, err := lifecycleMachine()
	if err != nil {
		return nil, err
	}

	ctx := &lifecycleContext{}
	interp := statekit.NewInterpreter(m)
	interp.UpdateContext(func(c **lifecycleContext) {
		*c = ctx
	})
	interp.Start()
	return &lifecycle{interp: interp, ctx: ctx}, nil
}

func (l *lifecycle) state() LifecycleState {
	return LifecycleState(l.interp.State().Value)
}

// send delivers an event if the current state handles it and reports
// whether it was delivered.
func (l *lifecycle) send(event statekit.EventType, payload interface{}) bool {
	if l.interp.Done() || !accepted[l.state()][event] {
		return false
	}
	l.interp.Send(statekit.Event{Type: event, Payload: payload})
	return true
}

func (l *lifecycle) track(frameID string) bool {
	return l.send(eventTrack, framePayload{FrameID: frameID})
}

func (l *lifecycle) navigate(frameID string) bool {
	if frameID == l.ctx.RootFrameID {
		return false
	}
	return l.send(eventNavigate, framePayload{FrameID: frameID})
}

func (l *lifecycle) close() bool {
	return l.send(eventClose, nil)
}

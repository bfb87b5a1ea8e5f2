package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/wiresplit/internal/domain"
)

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

// mockEmitter tracks state change events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"stopped to starting", StateStopped, StateStarting, nil},
		{"starting to running", StateStarting, StateRunning, nil},
		{"starting to stopping", StateStarting, StateStopping, nil},
		{"running to stopping", StateRunning, StateStopping, nil},
		{"running to crashed", StateRunning, StateCrashed, nil},
		{"stopping to stopped", StateStopping, StateStopped, nil},
		{"crashed to starting", StateCrashed, StateStarting, nil},
		{"stopped to running", StateStopped, StateRunning, domain.ErrNotRunning},
		{"crashed to stopped", StateCrashed, StateStopped, domain.ErrNotRunning},
		{"starting to stopped", StateStarting, StateStopped, domain.ErrAlreadyRunning},
		{"running to starting", StateRunning, StateStarting, domain.ErrAlreadyRunning},
		{"stopping to running", StateStopping, StateRunning, domain.ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(nopLogger{}, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")
			if err != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}

			want := tt.to
			if tt.wantErr != nil {
				want = tt.from
			}
			if l.State() != want {
				t.Errorf("state = %v, want %v", l.State(), want)
			}
		})
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(nopLogger{}, emitter)

	_ = l.TransitionTo(StateStarting, "start")
	_ = l.TransitionTo(StateRunning, "run")
	_ = l.TransitionTo(StateStopped, "invalid")

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].previous != StateStarting || events[1].current != StateRunning || events[1].reason != "run" {
		t.Errorf("event 1 = %+v, want Starting->Running (run)", events[1])
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state     State
		wantStart bool
		wantStop  bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(nopLogger{}, nil)
			l.state = tt.state

			if got := l.CanStart(); got != tt.wantStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.wantStart)
			}
			if got := l.CanStop(); got != tt.wantStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.wantStop)
			}
		})
	}
}

func TestLifecycle_Cancel(t *testing.T) {
	l := NewLifecycle(nopLogger{}, nil)
	l.Cancel() // nil-safe

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)
	l.Cancel()

	select {
	case <-ctx.Done():
	default:
		t.Error("context should be canceled after Cancel()")
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	l := NewLifecycle(nopLogger{}, nil)

	l.AddWorker()
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.WorkerDone()
	}()
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}

	l.AddWorker()
	if err := l.WaitWithTimeout(10 * time.Millisecond); err != domain.ErrShutdownTimeout {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
	l.WorkerDone()
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(nopLogger{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.State()
				_ = l.CanStart()
				_ = l.CanStop()
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(StateStarting, "test")
			_ = l.TransitionTo(StateRunning, "test")
		}()
	}
	wg.Wait()

	if l.State() != StateRunning {
		t.Errorf("state = %v, want Running", l.State())
	}
}

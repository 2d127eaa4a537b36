package event

import (
	"errors"
	"testing"
)

func TestListenersOrder(t *testing.T) {
	l := NewListeners("mod-a")
	var order []int

	for i := 1; i <= 3; i++ {
		n := i
		if _, err := l.On("projectCreated", func(*Event) error {
			order = append(order, n)
			return nil
		}); err != nil {
			t.Fatalf("On() error = %v", err)
		}
	}

	if err := l.HandleEvent(New("projectCreated", nil, false)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("handler order = %v, want [1 2 3]", order)
	}
}

func TestListenersOnlyMatchingName(t *testing.T) {
	l := NewListeners("mod-a")
	called := false
	l.On("categoryCreated", func(*Event) error {
		called = true
		return nil
	})

	l.HandleEvent(New("projectCreated", nil, false))
	if called {
		t.Error("handler for a different event was called")
	}
}

func TestListenersFailuresDoNotStopDelivery(t *testing.T) {
	l := NewListeners("mod-a")
	boom := errors.New("boom")
	reached := false

	l.On("x", func(*Event) error { return boom })
	l.On("x", func(*Event) error { panic("kaboom") })
	l.On("x", func(*Event) error {
		reached = true
		return nil
	})

	err := l.HandleEvent(New("x", nil, false))
	if !reached {
		t.Error("third listener not reached")
	}
	if !errors.Is(err, boom) {
		t.Errorf("HandleEvent() error = %v, want it to wrap boom", err)
	}
	if !errors.Is(err, ErrHandlerPanic) {
		t.Errorf("HandleEvent() error = %v, want it to wrap ErrHandlerPanic", err)
	}

	var he *HandlerError
	if !errors.As(err, &he) || he.Event != "x" {
		t.Errorf("errors.As(HandlerError) = %+v", he)
	}
}

func TestListenersOff(t *testing.T) {
	l := NewListeners("mod-a")
	id, _ := l.On("x", func(*Event) error { return nil })
	l.On("x", func(*Event) error { return nil })

	if !l.Off(id) {
		t.Fatal("Off() = false for known id")
	}
	if l.Off(id) {
		t.Error("Off() = true for already removed id")
	}
	if l.Count("x") != 1 {
		t.Errorf("Count() = %d, want 1", l.Count("x"))
	}
	if n := l.OffAll("x"); n != 1 {
		t.Errorf("OffAll() = %d, want 1", n)
	}
}

func TestListenersOnValidation(t *testing.T) {
	l := NewListeners("mod-a")

	if _, err := l.On("", func(*Event) error { return nil }); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("On(\"\") error = %v, want ErrInvalidEvent", err)
	}
	if _, err := l.On("x", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("On(nil) error = %v, want ErrNilHandler", err)
	}
}

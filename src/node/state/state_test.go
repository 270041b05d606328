package state

import (
	"testing"
)

func TestManagerState(t *testing.T) {
	var m Manager

	if m.GetState() != Initializing {
		t.Fatalf("zero Manager should be Initializing, got %s", m.GetState())
	}

	m.SetState(Running)
	if m.GetState() != Running {
		t.Fatalf("expected Running, got %s", m.GetState())
	}

	if Shutdown.String() != "Shutdown" || State(42).String() != "Unknown" {
		t.Fatalf("wrong string representation")
	}
}

func TestManagerGoFuncLimit(t *testing.T) {
	var m Manager

	release := make(chan struct{})

	for i := 0; i < WGLIMIT; i++ {
		if !m.GoFunc(func() { <-release }) {
			t.Fatalf("goroutine %d should have been launched", i)
		}
	}

	if m.GoFunc(func() {}) {
		t.Fatalf("goroutine over the limit should not be launched")
	}

	close(release)
	m.WaitRoutines()

	if m.Routines() != 0 {
		t.Fatalf("expected no tracked routines, got %d", m.Routines())
	}
}

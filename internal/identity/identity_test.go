package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResolverAwaitBeforeResolve(t *testing.T) {
	r := NewResolver()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Await(ctx)
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Await before resolve = %v, want ErrNotReady", err)
	}
}

func TestResolverAwaitAfterResolve(t *testing.T) {
	r := NewResolver()
	r.Resolve(Session{UserID: "u1", WorkspaceID: "ws1"})

	got, err := r.Await(context.Background())
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if got.WorkspaceID != "ws1" || got.UserID != "u1" {
		t.Errorf("session = %+v", got)
	}
}

func TestResolverAwaitUnblocksOnResolve(t *testing.T) {
	r := NewResolver()
	done := make(chan Session, 1)
	go func() {
		s, _ := r.Await(context.Background())
		done <- s
	}()
	r.Resolve(Session{WorkspaceID: "ws2"})

	select {
	case s := <-done:
		if s.WorkspaceID != "ws2" {
			t.Errorf("session = %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("Await did not unblock on resolve")
	}
}

func TestResolverFail(t *testing.T) {
	r := NewResolver()
	boom := errors.New("auth backend down")
	r.Fail(boom)

	_, err := r.Await(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Await after fail = %v, want %v", err, boom)
	}

	// First completion wins.
	r.Resolve(Session{WorkspaceID: "ws"})
	if _, err := r.Await(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Await after late resolve = %v, want original failure", err)
	}
}

func TestStatic(t *testing.T) {
	if _, err := (Static{}).Await(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("empty static = %v, want ErrNotReady", err)
	}
	s, err := Static{Session: Session{WorkspaceID: "ws"}}.Await(context.Background())
	if err != nil || s.WorkspaceID != "ws" {
		t.Errorf("static = %+v, %v", s, err)
	}
}

package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksRunInReverseOrder(t *testing.T) {
	h := NewHandler(time.Second)

	var order []string
	h.OnShutdown(func(context.Context) error {
		order = append(order, "storage")
		return nil
	})
	h.OnShutdown(func(context.Context) error {
		order = append(order, "http")
		return nil
	})

	go h.Trigger()
	if err := h.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if len(order) != 2 || order[0] != "http" || order[1] != "storage" {
		t.Errorf("hook order = %v, want [http storage]", order)
	}

	select {
	case <-h.Done():
	default:
		t.Errorf("Done not closed after Wait")
	}
}

func TestAllHooksRunDespiteErrors(t *testing.T) {
	h := NewHandler(time.Second)

	errFirst := errors.New("first failed")
	ran := 0
	h.OnShutdown(func(context.Context) error {
		ran++
		return nil
	})
	h.OnShutdown(func(context.Context) error {
		ran++
		return errFirst
	})

	go h.Trigger()
	err := h.Wait()

	if ran != 2 {
		t.Errorf("ran %d hooks, want 2", ran)
	}
	if !errors.Is(err, errFirst) {
		t.Errorf("Wait error = %v, want to contain %v", err, errFirst)
	}
}

func TestTriggerIsIdempotent(t *testing.T) {
	h := NewHandler(time.Second)
	h.Trigger()
	h.Trigger()

	if err := h.Wait(); err != nil {
		t.Fatalf("Wait after double trigger: %v", err)
	}
}

func TestHookSeesTimeoutContext(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)

	var deadlineSet bool
	h.OnShutdown(func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	})

	go h.Trigger()
	if err := h.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !deadlineSet {
		t.Errorf("hook context has no deadline")
	}
}

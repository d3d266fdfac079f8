package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestServerServeAndShutdown(t *testing.T) {
	srv := New("127.0.0.1:0", okHandler(), time.Second, time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	// Give the listener a moment, then shut down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("ListenAndServe returned %v, want ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

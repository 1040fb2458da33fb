package cli

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestRunServerReturnsWhenPortIsTaken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("GIN_MODE", "test")

	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, filepath.Join(t.TempDir(), "missing.yaml"), port)
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected an error for a port already in use")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("runServer kept running after the listener failed")
	}
}

func TestRunServerRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	err := runServer(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), "0")
	if err == nil {
		t.Fatalf("expected missing jwt secret to fail")
	}
}

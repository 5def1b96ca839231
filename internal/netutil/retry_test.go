// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package netutil

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/meshintel/netharvest/internal/transport"
)

type stubConn struct{}

func (stubConn) Execute(context.Context, string) (*xmlquery.Node, error) { return nil, nil }
func (stubConn) Close() error                                            { return nil }

// flakyDialer fails a fixed number of times before succeeding.
type flakyDialer struct {
	failures int
	calls    int
}

func (d *flakyDialer) Dial(_ context.Context, _ transport.Endpoint, _ transport.Credentials) (transport.Conn, error) {
	d.calls++
	if d.calls <= d.failures {
		return nil, errors.New("connection refused")
	}
	return stubConn{}, nil
}

func fastRetries(t *testing.T) {
	t.Helper()
	old := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	t.Cleanup(func() { RetryBaseDelay = old })
}

func TestDialRetriesThenSucceeds(t *testing.T) {
	fastRetries(t)
	inner := &flakyDialer{failures: 2}
	d := &RetryingDialer{Inner: inner, Retries: 3, Progress: io.Discard}

	conn, err := d.Dial(context.Background(), transport.Endpoint{Host: "vmx1"}, transport.Credentials{})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if conn == nil {
		t.Fatal("Dial() returned no connection")
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestDialExhaustsRetries(t *testing.T) {
	fastRetries(t)
	inner := &flakyDialer{failures: 10}
	d := &RetryingDialer{Inner: inner, Retries: 2}

	_, err := d.Dial(context.Background(), transport.Endpoint{Host: "vmx1"}, transport.Credentials{})
	if err == nil {
		t.Fatal("Dial() should return the last error")
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3 (one attempt plus two retries)", inner.calls)
	}
}

func TestDialNoRetriesByDefault(t *testing.T) {
	inner := &flakyDialer{failures: 1}
	d := &RetryingDialer{Inner: inner}

	if _, err := d.Dial(context.Background(), transport.Endpoint{}, transport.Credentials{}); err == nil {
		t.Fatal("Dial() should fail with zero retries")
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestDialCancelledDuringBackoff(t *testing.T) {
	old := RetryBaseDelay
	RetryBaseDelay = time.Hour
	t.Cleanup(func() { RetryBaseDelay = old })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	inner := &flakyDialer{failures: 10}
	d := &RetryingDialer{Inner: inner, Retries: 5}

	_, err := d.Dial(ctx, transport.Endpoint{}, transport.Credentials{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package netutil provides connection helpers for callers of the
// extraction engine. The engine itself never retries; a caller that wants
// connect retries wraps its dialer here.
package netutil

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/meshintel/netharvest/internal/transport"
)

// RetryBaseDelay controls the base duration for exponential backoff
// between connect attempts. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// RetryingDialer wraps an inner Dialer with exponential-backoff retries on
// dial failure. The delay starts at RetryBaseDelay and doubles each
// attempt. If the context is cancelled during a backoff wait, Dial returns
// ctx.Err(). After exhausting retries the last dial error is returned.
type RetryingDialer struct {
	Inner transport.Dialer

	// Retries is the number of additional attempts after the first
	// failure. Zero means a single attempt, no retry.
	Retries int

	// Progress receives a line per retry; nil discards them.
	Progress io.Writer
}

// Dial attempts Inner.Dial up to Retries+1 times.
func (d *RetryingDialer) Dial(ctx context.Context, ep transport.Endpoint, creds transport.Credentials) (transport.Conn, error) {
	w := d.Progress
	if w == nil {
		w = io.Discard
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		conn, err := d.Inner.Dial(ctx, ep, creds)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if attempt >= d.Retries {
			return nil, lastErr
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		fmt.Fprintf(w, "connect to %s failed, retrying in %v (attempt %d/%d): %v\n",
			ep.Host, backoff, attempt+1, d.Retries, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

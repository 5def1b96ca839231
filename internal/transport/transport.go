// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transport opens NETCONF sessions to network devices and executes
// RPCs, returning the reply as a parsed XML tree. The extraction pipeline
// consumes only the Dialer and Conn interfaces; tests substitute fakes.
package transport

import (
	"context"

	"github.com/antchfx/xmlquery"
)

// Endpoint identifies a device to connect to.
type Endpoint struct {
	Host string
	Port int
}

// Credentials authenticate a session. An empty Password means key-based
// authentication via the local ssh-agent.
type Credentials struct {
	Username string
	Password string
}

// Conn is an established session to one device. A Conn is owned by a
// single extraction run and is not safe for concurrent use.
type Conn interface {
	// Execute issues one RPC and returns the parsed reply tree. Transport
	// and protocol-level failures are wrapped as request errors.
	Execute(ctx context.Context, rpc string) (*xmlquery.Node, error)

	// Close releases the session. It is idempotent and best-effort: it
	// never reports a failure the caller could act on.
	Close() error
}

// Dialer opens sessions. The production implementation is NETCONF over
// SSH; tests provide fakes.
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint, creds Credentials) (Conn, error)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes extraction failures for machine consumption.
type ErrorKind string

const (
	// KindConnect: a session to the device could not be established.
	KindConnect ErrorKind = "connect_error"

	// KindSchemaUnreadable: the definition source could not be located or read.
	KindSchemaUnreadable ErrorKind = "schema_source_unreadable"

	// KindSchemaMalformed: the definition source parsed to the wrong shape.
	KindSchemaMalformed ErrorKind = "schema_source_malformed"

	// KindSchemaNotFound: the requested table name is absent from the source.
	KindSchemaNotFound ErrorKind = "schema_not_found"

	// KindRequestFailed: the transport request failed (timeout, protocol error).
	KindRequestFailed ErrorKind = "request_failed"

	// KindShapeMismatch: the response did not match the schema's expectations.
	KindShapeMismatch ErrorKind = "response_shape_mismatch"

	// KindInternal: an unexpected condition no other kind covers.
	KindInternal ErrorKind = "internal_error"
)

// ExtractError is the single structured error an extraction run reports.
// Stage and Table are filled in at the orchestrator boundary so callers can
// diagnose without retrying blindly.
type ExtractError struct {
	Kind    ErrorKind
	Stage   string // "connect", "load", "parse", "normalize"
	Table   string
	Message string
	wrapped error
}

func (e *ExtractError) Error() string {
	msg := e.Message
	if msg == "" && e.wrapped != nil {
		msg = e.wrapped.Error()
	} else if e.wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.wrapped)
	}
	if e.Table != "" {
		return fmt.Sprintf("%s (stage %s, table %s): %s", e.Kind, e.Stage, e.Table, msg)
	}
	return fmt.Sprintf("%s (stage %s): %s", e.Kind, e.Stage, msg)
}

func (e *ExtractError) Unwrap() error { return e.wrapped }

// NewError builds an ExtractError with an explicit message.
func NewError(kind ErrorKind, message string) *ExtractError {
	return &ExtractError{Kind: kind, Message: message}
}

// WrapError attaches a kind to err. If err already is an ExtractError it is
// returned unchanged so the innermost classification wins.
func WrapError(err error, kind ErrorKind) *ExtractError {
	if err == nil {
		return nil
	}
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee
	}
	return &ExtractError{Kind: kind, wrapped: err}
}

// AtStage fills in the stage and table context on err's classification,
// wrapping unclassified errors as KindInternal. Existing context wins, so
// the stage closest to the failure is the one reported.
func AtStage(err error, stage, table string) error {
	if err == nil {
		return nil
	}
	ee := WrapError(err, KindInternal)
	if ee.Stage == "" {
		ee.Stage = stage
	}
	if ee.Table == "" {
		ee.Table = table
	}
	return ee
}

// KindOf returns the ErrorKind of err, or KindInternal when err carries no
// classification.
func KindOf(err error) ErrorKind {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindInternal
}

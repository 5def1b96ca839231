// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract orchestrates one extraction run: resolve the definition
// source, open a device session, load the table, parse the reply, and
// normalize the output. One run owns exactly one session, released on every
// exit path, and performs no retries of its own.
package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/meshintel/netharvest/internal/normalize"
	"github.com/meshintel/netharvest/internal/parser"
	"github.com/meshintel/netharvest/internal/schema"
	"github.com/meshintel/netharvest/internal/transport"
	"github.com/meshintel/netharvest/pkg/types"
)

// Params are the inputs for one extraction run.
type Params struct {
	// Endpoint is the device to query.
	Endpoint transport.Endpoint

	// Credentials authenticate the session.
	Credentials transport.Credentials

	// Table is the schema name to load from the definition file.
	Table string

	// File is the definition file name (must end in .yml or .yaml).
	File string

	// Dir is the directory holding the definition file.
	Dir string

	// ResponseType selects normalized records or raw pass-through items.
	ResponseType types.ResponseType
}

// SourcePath resolves the definition file location from Dir and File.
func (p Params) SourcePath() string {
	return filepath.Join(p.Dir, p.File)
}

// Run performs one extraction and returns either a complete Result or a
// single classified error, never a partial result. Progress lines go to w.
func Run(ctx context.Context, dialer transport.Dialer, p Params, w io.Writer) (*types.Result, error) {
	// Reject a bad definition file name before any I/O or connection.
	if err := schema.CheckSource(p.File); err != nil {
		return nil, types.AtStage(err, "resolve", p.Table)
	}
	if _, err := types.ParseResponseType(string(p.ResponseType)); err != nil {
		return nil, types.AtStage(err, "resolve", p.Table)
	}

	fmt.Fprintf(w, "connecting to %s@%s:%d\n", p.Credentials.Username, p.Endpoint.Host, p.Endpoint.Port)
	conn, err := dialer.Dial(ctx, p.Endpoint, p.Credentials)
	if err != nil {
		return nil, types.AtStage(err, "connect", p.Table)
	}
	defer conn.Close()

	t, err := schema.Load(p.SourcePath(), p.Table)
	if err != nil {
		return nil, types.AtStage(err, "load", p.Table)
	}

	fmt.Fprintf(w, "getting table %s from device\n", t.Name)
	items, err := parser.Run(ctx, conn, t)
	if err != nil {
		return nil, types.AtStage(err, "parse", p.Table)
	}

	result := &types.Result{
		Table:  t.Name,
		Host:   p.Endpoint.Host,
		Count:  len(items),
		Type:   p.ResponseType,
		Fields: t.FieldNames(),
	}
	switch p.ResponseType {
	case types.ResponseItems:
		result.Items = items
	default:
		result.Records = normalize.Apply(items, t.FieldNames())
	}
	return result, nil
}

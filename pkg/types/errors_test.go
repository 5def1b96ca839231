// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapErrorKeepsInnerClassification(t *testing.T) {
	inner := NewError(KindSchemaNotFound, "table missing")
	wrapped := WrapError(fmt.Errorf("loading: %w", inner), KindInternal)

	if wrapped.Kind != KindSchemaNotFound {
		t.Errorf("Kind = %v, the innermost classification should win", wrapped.Kind)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(nil, KindInternal) != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

func TestAtStageEnriches(t *testing.T) {
	err := AtStage(errors.New("boom"), "parse", "LLDPNeighborTable")

	var ee *ExtractError
	if !errors.As(err, &ee) {
		t.Fatalf("error %v is not an ExtractError", err)
	}
	if ee.Kind != KindInternal {
		t.Errorf("Kind = %v, unclassified errors become internal", ee.Kind)
	}
	if ee.Stage != "parse" || ee.Table != "LLDPNeighborTable" {
		t.Errorf("Stage = %q, Table = %q", ee.Stage, ee.Table)
	}

	msg := err.Error()
	for _, want := range []string{"internal_error", "parse", "LLDPNeighborTable", "boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestAtStageDoesNotOverwrite(t *testing.T) {
	inner := AtStage(NewError(KindRequestFailed, "timeout"), "parse", "T")
	outer := AtStage(inner, "orchestrate", "other")

	var ee *ExtractError
	if !errors.As(outer, &ee) {
		t.Fatal("not an ExtractError")
	}
	if ee.Stage != "parse" || ee.Table != "T" {
		t.Errorf("Stage = %q, Table = %q; the stage closest to the failure wins", ee.Stage, ee.Table)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewError(KindConnect, "no route")); got != KindConnect {
		t.Errorf("KindOf = %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindInternal)
	}
}

func TestAbsentMarshaling(t *testing.T) {
	data, err := Absent.MarshalJSON()
	if err != nil || string(data) != "null" {
		t.Errorf("MarshalJSON = %q, %v", data, err)
	}
	if Absent.String() != "<absent>" {
		t.Errorf("String() = %q", Absent.String())
	}
	if !IsAbsent(Absent) || IsAbsent("") {
		t.Error("IsAbsent misclassifies values")
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transport

import (
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
)

func TestBuildRPC(t *testing.T) {
	tests := []struct {
		name string
		rpc  string
		want string
	}{
		{
			"bare name becomes empty element",
			"get-lldp-neighbors-information",
			"<get-lldp-neighbors-information/>",
		},
		{
			"markup passes through",
			`<get-interface-information><terse/></get-interface-information>`,
			`<get-interface-information><terse/></get-interface-information>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildRPC(7, tt.rpc)
			if !strings.Contains(got, tt.want) {
				t.Errorf("BuildRPC() = %q, want it to contain %q", got, tt.want)
			}
			if !strings.Contains(got, `message-id="7"`) {
				t.Errorf("BuildRPC() = %q, missing message-id", got)
			}
			if !strings.HasSuffix(got, endOfMessage) {
				t.Errorf("BuildRPC() = %q, missing end-of-message delimiter", got)
			}
		})
	}
}

func TestParseReply(t *testing.T) {
	doc, err := ParseReply(`<rpc-reply message-id="1"><ok/></rpc-reply>`)
	if err != nil {
		t.Fatalf("ParseReply() error = %v", err)
	}
	if xmlquery.FindOne(doc, "//ok") == nil {
		t.Error("parsed reply is missing its content")
	}
}

func TestParseReplyRPCError(t *testing.T) {
	raw := `<rpc-reply>
  <rpc-error>
    <error-severity>error</error-severity>
    <error-message>syntax error</error-message>
  </rpc-error>
</rpc-reply>`

	_, err := ParseReply(raw)
	if err == nil {
		t.Fatal("ParseReply() should surface rpc-error")
	}
	if !strings.Contains(err.Error(), "syntax error") {
		t.Errorf("error = %v, want the device message attached", err)
	}
}

func TestParseReplyWarningSeverity(t *testing.T) {
	raw := `<rpc-reply>
  <rpc-error>
    <error-severity>warning</error-severity>
    <error-message>statement ignored</error-message>
  </rpc-error>
  <data/>
</rpc-reply>`

	doc, err := ParseReply(raw)
	if err != nil {
		t.Fatalf("ParseReply() error = %v, warnings should not fail the request", err)
	}
	if doc == nil {
		t.Fatal("ParseReply() returned no tree")
	}
}

func TestParseReplyMalformed(t *testing.T) {
	if _, err := ParseReply("<rpc-reply><unclosed>"); err == nil {
		t.Error("ParseReply() should reject a truncated reply")
	}
}

func TestCutMessage(t *testing.T) {
	var buf strings.Builder
	buf.WriteString("partial")

	if _, ok := cutMessage(&buf); ok {
		t.Fatal("cutMessage() should wait for the delimiter")
	}

	buf.WriteString(" frame" + endOfMessage + "next")
	msg, ok := cutMessage(&buf)
	if !ok {
		t.Fatal("cutMessage() should find the complete frame")
	}
	if msg != "partial frame" {
		t.Errorf("msg = %q", msg)
	}
	if buf.String() != "next" {
		t.Errorf("remainder = %q, want the next frame's start preserved", buf.String())
	}
}

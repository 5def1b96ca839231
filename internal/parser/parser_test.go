// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"

	"github.com/meshintel/netharvest/internal/schema"
	"github.com/meshintel/netharvest/pkg/types"
)

// fakeConn serves a canned reply for any RPC and records what was executed.
type fakeConn struct {
	reply    string
	err      error
	executed []string
	closed   bool
}

func (c *fakeConn) Execute(_ context.Context, rpc string) (*xmlquery.Node, error) {
	c.executed = append(c.executed, rpc)
	if c.err != nil {
		return nil, c.err
	}
	return xmlquery.Parse(strings.NewReader(c.reply))
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

const lldpReply = `
<rpc-reply>
  <lldp-neighbors-information>
    <lldp-neighbor-information>
      <lldp-local-interface>fxp0</lldp-local-interface>
      <lldp-remote-port-description>fxp0</lldp-remote-port-description>
      <lldp-remote-system-name>vmx2</lldp-remote-system-name>
    </lldp-neighbor-information>
    <lldp-neighbor-information>
      <lldp-local-interface>ge-0/0/2</lldp-local-interface>
      <lldp-remote-port-description>ge-0/0/2</lldp-remote-port-description>
      <lldp-remote-system-name>vmx2</lldp-remote-system-name>
    </lldp-neighbor-information>
  </lldp-neighbors-information>
</rpc-reply>`

func lldpTable(t *testing.T) *schema.Table {
	t.Helper()
	tbl, err := schema.Parse([]byte(`
LLDPNeighborTable:
  rpc: get-lldp-neighbors-information
  item: //lldp-neighbor-information
  key: lldp-local-interface
  fields:
    neighbor_interface: lldp-remote-port-description
    local_interface: lldp-local-interface
    neighbor: lldp-remote-system-name
`), "LLDPNeighborTable")
	if err != nil {
		t.Fatalf("schema.Parse() error = %v", err)
	}
	return tbl
}

func TestRunExtractsItems(t *testing.T) {
	conn := &fakeConn{reply: lldpReply}
	items, err := Run(context.Background(), conn, lldpTable(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(conn.executed, []string{"get-lldp-neighbors-information"}) {
		t.Errorf("executed = %v", conn.executed)
	}

	want := []types.RawItem{
		{Key: "fxp0", Fields: []types.Pair{
			{Name: "neighbor_interface", Value: "fxp0"},
			{Name: "local_interface", Value: "fxp0"},
			{Name: "neighbor", Value: "vmx2"},
		}},
		{Key: "ge-0/0/2", Fields: []types.Pair{
			{Name: "neighbor_interface", Value: "ge-0/0/2"},
			{Name: "local_interface", Value: "ge-0/0/2"},
			{Name: "neighbor", Value: "vmx2"},
		}},
	}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("items = %+v\nwant %+v", items, want)
	}
}

func TestRunTransportFailure(t *testing.T) {
	conn := &fakeConn{err: fmt.Errorf("session dropped")}
	_, err := Run(context.Background(), conn, lldpTable(t))
	if err == nil {
		t.Fatal("Run() should surface the transport failure")
	}
	if kind := types.KindOf(err); kind != types.KindRequestFailed {
		t.Errorf("kind = %v, want %v", kind, types.KindRequestFailed)
	}
}

func parseReply(t *testing.T, xml string) *xmlquery.Node {
	t.Helper()
	doc, err := xmlquery.Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

func parseTable(t *testing.T, def, name string) *schema.Table {
	t.Helper()
	tbl, err := schema.Parse([]byte(def), name)
	if err != nil {
		t.Fatalf("schema.Parse() error = %v", err)
	}
	return tbl
}

func TestExtractZeroItems(t *testing.T) {
	items, err := Extract(parseReply(t, "<rpc-reply/>"), lldpTable(t))
	if err != nil {
		t.Fatalf("Extract() error = %v, want empty success", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v, want none", items)
	}
}

func TestExtractRequiredMismatch(t *testing.T) {
	tbl := parseTable(t, `
T:
  rpc: get-x
  item: //missing
  required: true
`, "T")
	_, err := Extract(parseReply(t, "<rpc-reply><other/></rpc-reply>"), tbl)
	if err == nil {
		t.Fatal("Extract() should fail when a required table matches nothing")
	}
	if kind := types.KindOf(err); kind != types.KindShapeMismatch {
		t.Errorf("kind = %v, want %v", kind, types.KindShapeMismatch)
	}
}

func TestExtractFirstMatchWins(t *testing.T) {
	tbl := parseTable(t, `
T:
  rpc: get-x
  item: //item
  fields:
    v: value
`, "T")
	doc := parseReply(t, `<r><item><value>one</value><value>two</value></item></r>`)

	items, err := Extract(doc, tbl)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := items[0].Fields[0].Value; got != "one" {
		t.Errorf("value = %v, want first match %q", got, "one")
	}
}

func TestExtractMultiValued(t *testing.T) {
	tbl := parseTable(t, `
T:
  rpc: get-x
  item: //item
  fields:
    v:
      xpath: value
      multi: true
    missing:
      xpath: nothing
      multi: true
`, "T")
	doc := parseReply(t, `<r><item><value>one</value><value>two</value></item></r>`)

	items, err := Extract(doc, tbl)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(items[0].Fields) != 1 {
		t.Fatalf("fields = %+v, want only the matching multi field", items[0].Fields)
	}
	want := []string{"one", "two"}
	if got := items[0].Fields[0].Value; !reflect.DeepEqual(got, want) {
		t.Errorf("value = %v, want %v", got, want)
	}
}

func TestExtractDefaultAndAbsent(t *testing.T) {
	tbl := parseTable(t, `
T:
  rpc: get-x
  item: //item
  fields:
    name: name
    descr:
      xpath: description
      default: none
    mtu: mtu
`, "T")
	doc := parseReply(t, `<r><item><name>ge-0/0/0</name></item></r>`)

	items, err := Extract(doc, tbl)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// name matched, descr fell back to its default, mtu produced no pair.
	want := []types.Pair{
		{Name: "name", Value: "ge-0/0/0"},
		{Name: "descr", Value: "none"},
	}
	if !reflect.DeepEqual(items[0].Fields, want) {
		t.Errorf("fields = %+v, want %+v", items[0].Fields, want)
	}
}

func TestExtractNestedTable(t *testing.T) {
	tbl := parseTable(t, `
T:
  rpc: get-interface-information
  item: //physical-interface
  key: name
  fields:
    name: name
    logical:
      table:
        item: logical-interface
        fields:
          unit: name
`, "T")
	doc := parseReply(t, `
<rpc-reply>
  <physical-interface>
    <name>ge-0/0/0</name>
    <logical-interface><name>ge-0/0/0.0</name></logical-interface>
    <logical-interface><name>ge-0/0/0.1</name></logical-interface>
  </physical-interface>
</rpc-reply>`)

	items, err := Extract(doc, tbl)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	nested, ok := items[0].Fields[1].Value.([]types.RawItem)
	if !ok {
		t.Fatalf("nested value has type %T", items[0].Fields[1].Value)
	}
	if len(nested) != 2 {
		t.Fatalf("nested items = %d, want 2", len(nested))
	}
	if nested[0].Fields[0].Value != "ge-0/0/0.0" || nested[1].Fields[0].Value != "ge-0/0/0.1" {
		t.Errorf("nested = %+v", nested)
	}
}

func TestExtractDepthOverflow(t *testing.T) {
	// Build a schema nested one level past the cap and a reply deep
	// enough to reach it.
	def := "T:\n  rpc: get-x\n  item: //n0\n  fields:\n"
	indent := "    "
	for i := 0; i <= MaxNestingDepth; i++ {
		def += fmt.Sprintf("%ssub:\n%s  table:\n%s    item: n%d\n%s    fields:\n", indent, indent, indent, i+1, indent)
		indent += "      "
	}
	def += indent + "leaf: value\n"
	tbl := parseTable(t, def, "T")

	var xml strings.Builder
	for i := 0; i <= MaxNestingDepth+1; i++ {
		fmt.Fprintf(&xml, "<n%d>", i)
	}
	xml.WriteString("<value>x</value>")
	for i := MaxNestingDepth + 1; i >= 0; i-- {
		fmt.Fprintf(&xml, "</n%d>", i)
	}

	_, err := Extract(parseReply(t, xml.String()), tbl)
	if err == nil {
		t.Fatal("Extract() should report a shape mismatch on depth overflow")
	}
	var ee *types.ExtractError
	if !errors.As(err, &ee) || ee.Kind != types.KindShapeMismatch {
		t.Errorf("error = %v, want shape mismatch", err)
	}
}

func TestExtractPreservesResponseOrder(t *testing.T) {
	tbl := parseTable(t, `
T:
  rpc: get-x
  item: //item
  fields:
    v: value
`, "T")
	doc := parseReply(t, `<r><item><value>c</value></item><item><value>a</value></item><item><value>b</value></item></r>`)

	items, err := Extract(doc, tbl)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	var got []string
	for _, it := range items {
		got = append(got, it.Fields[0].Value.(string))
	}
	if !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("order = %v, want response order preserved", got)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema loads declarative table definitions from YAML files and
// compiles them into extraction rules. A definition file maps table names
// to table bodies; a body names the RPC to issue, an XPath selecting the
// repeating item elements in the reply, and an ordered list of field rules
// locating each output field within one item.
//
// Example definition:
//
//	LLDPNeighborTable:
//	  rpc: get-lldp-neighbors-information
//	  item: //lldp-neighbor-information
//	  key: lldp-local-interface
//	  fields:
//	    local_interface: lldp-local-interface
//	    neighbor_interface: lldp-remote-port-description
//	    neighbor: lldp-remote-system-name
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/xpath"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/netharvest/pkg/types"
)

// RuleKind tags the variant of a field rule.
type RuleKind int

const (
	// RuleSelect takes the first element matching the locator; absent
	// when nothing matches.
	RuleSelect RuleKind = iota

	// RuleDefault is RuleSelect with a declared fallback value used when
	// nothing matches.
	RuleDefault

	// RuleMulti collects every match as a sequence of scalars.
	RuleMulti

	// RuleNested extracts a sub-table: the value is a sequence of raw
	// items produced by the nested item selector and field rules.
	RuleNested
)

// Field is one compiled field rule.
type Field struct {
	// Name is the output field name, unique within its table.
	Name string

	// Kind selects the rule variant.
	Kind RuleKind

	// Locator is the XPath locating the field within one item element.
	// Empty for RuleNested, which uses Nested.Item instead.
	Locator string

	// Default is the fallback value for RuleDefault.
	Default string

	// Nested holds the sub-table rules for RuleNested.
	Nested *Nested

	expr *xpath.Expr
}

// Expr returns the compiled locator expression.
func (f *Field) Expr() *xpath.Expr { return f.expr }

// Nested describes a nested sub-table within a field rule.
type Nested struct {
	// Item is the XPath selecting the sub-table's repeating elements
	// relative to the enclosing item.
	Item string

	// Fields are the sub-table's field rules in declaration order.
	Fields []Field

	expr *xpath.Expr
}

// Expr returns the compiled item-selection expression.
func (n *Nested) Expr() *xpath.Expr { return n.expr }

// Table is a compiled schema definition. It is immutable after Load and
// safe to share across goroutines.
type Table struct {
	// Name is the table's name within its definition file.
	Name string

	// RPC is the request descriptor executed against the device.
	RPC string

	// Item is the XPath selecting the repeating item elements in the reply.
	Item string

	// Key is an optional XPath locating each item's key value.
	Key string

	// Required, when set, makes a response with zero matching items a
	// shape mismatch instead of an empty success.
	Required bool

	// Fields are the field rules in declaration order.
	Fields []Field

	itemExpr *xpath.Expr
	keyExpr  *xpath.Expr
}

// ItemExpr returns the compiled item-selection expression.
func (t *Table) ItemExpr() *xpath.Expr { return t.itemExpr }

// KeyExpr returns the compiled key expression, or nil when no key is declared.
func (t *Table) KeyExpr() *xpath.Expr { return t.keyExpr }

// FieldNames returns the declared output field names in order.
func (t *Table) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// CheckSource rejects a definition file name that does not carry a
// recognized extension. It runs before any file I/O.
func CheckSource(file string) error {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yml", ".yaml":
		return nil
	}
	return types.NewError(types.KindSchemaUnreadable,
		fmt.Sprintf("definition file %q must have a .yml or .yaml extension", file))
}

// Load reads the definition file at path and compiles the named table.
func Load(path, name string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(fmt.Errorf("reading definition file %s: %w", path, err),
			types.KindSchemaUnreadable)
	}
	return Parse(data, name)
}

// Parse compiles the named table from definition source bytes.
func Parse(data []byte, name string) (*Table, error) {
	tables, err := topLevel(data)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(tables.Content); i += 2 {
		if tables.Content[i].Value != name {
			continue
		}
		t, err := compileTable(name, tables.Content[i+1])
		if err != nil {
			return nil, types.WrapError(err, types.KindSchemaMalformed)
		}
		return t, nil
	}

	return nil, types.NewError(types.KindSchemaNotFound,
		fmt.Sprintf("table %q not found in definition source", name))
}

// Names lists the table names a definition file declares, in file order.
func Names(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(fmt.Errorf("reading definition file %s: %w", path, err),
			types.KindSchemaUnreadable)
	}
	tables, err := topLevel(data)
	if err != nil {
		return nil, err
	}
	var names []string
	for i := 0; i < len(tables.Content); i += 2 {
		names = append(names, tables.Content[i].Value)
	}
	return names, nil
}

// topLevel parses the source and returns the root mapping of table names
// to table bodies.
func topLevel(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, types.WrapError(fmt.Errorf("parsing definition source: %w", err),
			types.KindSchemaMalformed)
	}
	if len(doc.Content) == 0 {
		return nil, types.NewError(types.KindSchemaMalformed, "definition source is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, types.NewError(types.KindSchemaMalformed,
			"definition source must be a mapping of table names to table bodies")
	}
	return root, nil
}

func compileTable(name string, body *yaml.Node) (*Table, error) {
	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("table %s: body must be a mapping", name)
	}

	t := &Table{Name: name}
	var fieldsNode *yaml.Node

	for i := 0; i < len(body.Content); i += 2 {
		key, val := body.Content[i].Value, body.Content[i+1]
		switch key {
		case "rpc":
			t.RPC = val.Value
		case "item":
			t.Item = val.Value
		case "key":
			t.Key = val.Value
		case "required":
			if err := val.Decode(&t.Required); err != nil {
				return nil, fmt.Errorf("table %s: required: %w", name, err)
			}
		case "fields":
			fieldsNode = val
		default:
			return nil, fmt.Errorf("table %s: unknown attribute %q", name, key)
		}
	}

	if t.RPC == "" {
		return nil, fmt.Errorf("table %s: missing rpc", name)
	}
	if t.Item == "" {
		return nil, fmt.Errorf("table %s: missing item selector", name)
	}

	var err error
	if t.itemExpr, err = xpath.Compile(t.Item); err != nil {
		return nil, fmt.Errorf("table %s: item selector %q: %w", name, t.Item, err)
	}
	if t.Key != "" {
		if t.keyExpr, err = xpath.Compile(t.Key); err != nil {
			return nil, fmt.Errorf("table %s: key locator %q: %w", name, t.Key, err)
		}
	}

	if fieldsNode != nil {
		if t.Fields, err = compileFields(name, fieldsNode); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// compileFields walks a fields mapping in declaration order. A scalar value
// is shorthand for a plain select rule; a mapping value spells the rule out.
func compileFields(table string, node *yaml.Node) ([]Field, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("table %s: fields must be a mapping", table)
	}

	seen := make(map[string]bool)
	var fields []Field

	for i := 0; i < len(node.Content); i += 2 {
		name, val := node.Content[i].Value, node.Content[i+1]
		if seen[name] {
			return nil, fmt.Errorf("table %s: duplicate field %q", table, name)
		}
		seen[name] = true

		f, err := compileField(table, name, val)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func compileField(table, name string, val *yaml.Node) (Field, error) {
	f := Field{Name: name, Kind: RuleSelect}

	switch val.Kind {
	case yaml.ScalarNode:
		f.Locator = val.Value

	case yaml.MappingNode:
		var hasDefault, multi bool
		var nestedNode *yaml.Node
		for i := 0; i < len(val.Content); i += 2 {
			key, v := val.Content[i].Value, val.Content[i+1]
			switch key {
			case "xpath":
				f.Locator = v.Value
			case "default":
				f.Default = v.Value
				hasDefault = true
			case "multi":
				if err := v.Decode(&multi); err != nil {
					return f, fmt.Errorf("table %s: field %s: multi: %w", table, name, err)
				}
			case "table":
				nestedNode = v
			default:
				return f, fmt.Errorf("table %s: field %s: unknown attribute %q", table, name, key)
			}
		}

		switch {
		case nestedNode != nil:
			if hasDefault || multi || f.Locator != "" {
				return f, fmt.Errorf("table %s: field %s: table rule cannot combine with xpath, default, or multi", table, name)
			}
			n, err := compileNested(table, name, nestedNode)
			if err != nil {
				return f, err
			}
			f.Kind, f.Nested = RuleNested, n
		case multi && hasDefault:
			return f, fmt.Errorf("table %s: field %s: multi rule cannot declare a default", table, name)
		case multi:
			f.Kind = RuleMulti
		case hasDefault:
			f.Kind = RuleDefault
		}

	default:
		return f, fmt.Errorf("table %s: field %s: rule must be a locator string or a mapping", table, name)
	}

	if f.Kind != RuleNested {
		if f.Locator == "" {
			return f, fmt.Errorf("table %s: field %s: missing locator", table, name)
		}
		expr, err := xpath.Compile(f.Locator)
		if err != nil {
			return f, fmt.Errorf("table %s: field %s: locator %q: %w", table, name, f.Locator, err)
		}
		f.expr = expr
	}
	return f, nil
}

func compileNested(table, field string, node *yaml.Node) (*Nested, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("table %s: field %s: table rule must be a mapping", table, field)
	}

	n := &Nested{}
	var fieldsNode *yaml.Node
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "item":
			n.Item = val.Value
		case "fields":
			fieldsNode = val
		default:
			return nil, fmt.Errorf("table %s: field %s: unknown table attribute %q", table, field, key)
		}
	}

	if n.Item == "" {
		return nil, fmt.Errorf("table %s: field %s: nested table missing item selector", table, field)
	}
	expr, err := xpath.Compile(n.Item)
	if err != nil {
		return nil, fmt.Errorf("table %s: field %s: nested item selector %q: %w", table, field, n.Item, err)
	}
	n.expr = expr

	if fieldsNode != nil {
		if n.Fields, err = compileFields(table, fieldsNode); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parser executes a table's RPC against a device session and walks
// the reply tree, producing one raw item per repeating element. Field rules
// are applied in schema declaration order; the reply's item ordering is
// preserved.
package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/meshintel/netharvest/internal/schema"
	"github.com/meshintel/netharvest/internal/transport"
	"github.com/meshintel/netharvest/pkg/types"
)

// MaxNestingDepth caps nested-table recursion. A reply that would exceed
// it is reported as a shape mismatch instead of recursing unbounded.
const MaxNestingDepth = 8

// Run executes the table's RPC on conn and extracts the raw item sequence.
// Transport failures come back as request errors; a reply that defeats the
// schema's required flag is a shape mismatch.
func Run(ctx context.Context, conn transport.Conn, t *schema.Table) ([]types.RawItem, error) {
	reply, err := conn.Execute(ctx, t.RPC)
	if err != nil {
		return nil, types.WrapError(err, types.KindRequestFailed)
	}
	return Extract(reply, t)
}

// Extract applies the table's selection and field rules to a parsed reply.
// Zero matching items is an empty success unless the table is required.
func Extract(reply *xmlquery.Node, t *schema.Table) ([]types.RawItem, error) {
	nodes := xmlquery.QuerySelectorAll(reply, t.ItemExpr())
	if len(nodes) == 0 && t.Required {
		return nil, types.NewError(types.KindShapeMismatch,
			fmt.Sprintf("table %s requires items but selector %q matched nothing", t.Name, t.Item))
	}

	items := make([]types.RawItem, 0, len(nodes))
	for _, n := range nodes {
		item, err := extractItem(n, t.KeyExpr(), t.Fields, 0)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// extractItem builds one raw item from an item element. A field whose
// locator matches nothing contributes no pair (the normalizer marks it
// absent) unless the rule declares a default.
func extractItem(node *xmlquery.Node, keyExpr *xpath.Expr, fields []schema.Field, depth int) (types.RawItem, error) {
	if depth > MaxNestingDepth {
		return types.RawItem{}, types.NewError(types.KindShapeMismatch,
			fmt.Sprintf("nested tables exceed the depth limit of %d", MaxNestingDepth))
	}

	var item types.RawItem
	if keyExpr != nil {
		if n := xmlquery.QuerySelector(node, keyExpr); n != nil {
			item.Key = text(n)
		}
	}

	for i := range fields {
		f := &fields[i]
		switch f.Kind {
		case schema.RuleSelect:
			if n := xmlquery.QuerySelector(node, f.Expr()); n != nil {
				item.Fields = append(item.Fields, types.Pair{Name: f.Name, Value: text(n)})
			}

		case schema.RuleDefault:
			value := f.Default
			if n := xmlquery.QuerySelector(node, f.Expr()); n != nil {
				value = text(n)
			}
			item.Fields = append(item.Fields, types.Pair{Name: f.Name, Value: value})

		case schema.RuleMulti:
			matches := xmlquery.QuerySelectorAll(node, f.Expr())
			if len(matches) == 0 {
				continue
			}
			values := make([]string, len(matches))
			for j, m := range matches {
				values[j] = text(m)
			}
			item.Fields = append(item.Fields, types.Pair{Name: f.Name, Value: values})

		case schema.RuleNested:
			subNodes := xmlquery.QuerySelectorAll(node, f.Nested.Expr())
			subItems := make([]types.RawItem, 0, len(subNodes))
			for _, sn := range subNodes {
				sub, err := extractItem(sn, nil, f.Nested.Fields, depth+1)
				if err != nil {
					return types.RawItem{}, err
				}
				subItems = append(subItems, sub)
			}
			item.Fields = append(item.Fields, types.Pair{Name: f.Name, Value: subItems})
		}
	}
	return item, nil
}

func text(n *xmlquery.Node) string {
	return strings.TrimSpace(n.InnerText())
}

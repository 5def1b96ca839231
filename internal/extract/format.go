// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/meshintel/netharvest/pkg/types"
)

// FormatJSON writes the result as indented JSON to w.
func FormatJSON(r *types.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// FormatTable writes the result as a human-readable table to w.
func FormatTable(r *types.Result, w io.Writer) {
	if r.Count == 0 {
		fmt.Fprintf(w, "No items returned for table %s.\n", r.Table)
		return
	}

	if r.Type == types.ResponseItems {
		formatItems(r, w)
		return
	}

	widths := make([]int, len(r.Fields))
	for i, name := range r.Fields {
		widths[i] = len(name)
		for _, rec := range r.Records {
			if n := len(cell(rec[name])); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for i, name := range r.Fields {
		fmt.Fprintf(w, "%-*s  ", widths[i], name)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", rowWidth(widths)))

	for _, rec := range r.Records {
		for i, name := range r.Fields {
			fmt.Fprintf(w, "%-*s  ", widths[i], cell(rec[name]))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n%d items from %s\n", r.Count, r.Host)
}

func formatItems(r *types.Result, w io.Writer) {
	for _, item := range r.Items {
		if item.Key != "" {
			fmt.Fprintf(w, "%s:\n", item.Key)
		} else {
			fmt.Fprintln(w, "-")
		}
		for _, p := range item.Fields {
			fmt.Fprintf(w, "  %s: %s\n", p.Name, cell(p.Value))
		}
	}
	fmt.Fprintf(w, "\n%d items from %s\n", r.Count, r.Host)
}

// cell renders one value for table output.
func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ",")
	case []types.RawItem:
		return fmt.Sprintf("<%d nested items>", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

func rowWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	return total
}

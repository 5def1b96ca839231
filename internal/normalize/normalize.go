// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts raw item sequences into canonical records:
// one uniform-shape mapping per item, independent of how the device reply
// grouped its keys.
package normalize

import "github.com/meshintel/netharvest/pkg/types"

// Apply builds one canonical record per raw item, in order. Every name in
// fieldNames appears in every record; a field with no pair in the item maps
// to types.Absent. Pairs whose name is not declared are dropped. Apply is
// total: it never fails, whatever the items contain.
func Apply(items []types.RawItem, fieldNames []string) []types.Record {
	records := make([]types.Record, 0, len(items))
	for _, item := range items {
		rec := make(types.Record, len(fieldNames))
		for _, name := range fieldNames {
			rec[name] = types.Absent
		}
		for _, p := range item.Fields {
			if _, declared := rec[p.Name]; declared {
				rec[p.Name] = p.Value
			}
		}
		records = append(records, rec)
	}
	return records
}

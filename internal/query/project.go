package query

import "encoding/json"

// Project renders v through its JSON tags and keeps only the requested
// top-level fields. An empty field list means no projection; the whole object
// passes through. Repositories always select a fixed column set, so projection
// is purely a response-shaping concern and never widens what a query can read.
func Project(v any, fields []string) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}
	if len(fields) == 0 {
		return m
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if val, ok := m[f]; ok {
			out[f] = val
		}
	}
	return out
}

// ProjectList applies Project to every element of a slice.
func ProjectList[T any](items []T, fields []string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, Project(it, fields))
	}
	return out
}

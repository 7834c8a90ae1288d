// Package jsonschema infers JSON Schemas (Draft 2020-12) from exported REDCap data.
package jsonschema

import (
	"math"
	"sort"

	"github.com/invopop/jsonschema"
)

// InferValue generates a JSON Schema from an already-parsed JSON value.
func InferValue(v any) *jsonschema.Schema {
	switch val := v.(type) {
	case nil:
		return &jsonschema.Schema{Type: "null"}
	case bool:
		return &jsonschema.Schema{Type: "boolean"}
	case float64:
		if math.Trunc(val) == val && !math.IsInf(val, 0) && !math.IsNaN(val) {
			return &jsonschema.Schema{Type: "integer"}
		}
		return &jsonschema.Schema{Type: "number"}
	case int, int32, int64:
		return &jsonschema.Schema{Type: "integer"}
	case string:
		return &jsonschema.Schema{Type: "string"}
	case []any:
		s := &jsonschema.Schema{Type: "array"}
		if len(val) > 0 {
			items := make([]*jsonschema.Schema, 0, len(val))
			for _, item := range val {
				items = append(items, InferValue(item))
			}
			s.Items = merge(items)
		}
		return s
	case map[string]any:
		s := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
		for _, k := range sortedKeys(val) {
			s.Properties.Set(k, InferValue(val[k]))
		}
		return s
	default:
		return &jsonschema.Schema{}
	}
}

// merge combines schemas of several samples. Same-typed objects merge their
// properties; mixed types become anyOf.
func merge(schemas []*jsonschema.Schema) *jsonschema.Schema {
	switch len(schemas) {
	case 0:
		return &jsonschema.Schema{}
	case 1:
		return schemas[0]
	}

	types := make(map[string]bool)
	var objects, arrays []*jsonschema.Schema
	for _, s := range schemas {
		if s.Type == "" {
			continue
		}
		types[s.Type] = true
		switch s.Type {
		case "object":
			objects = append(objects, s)
		case "array":
			arrays = append(arrays, s)
		}
	}

	// integer widens into number
	if types["integer"] && types["number"] {
		delete(types, "integer")
	}
	typeList := make([]string, 0, len(types))
	for t := range types {
		typeList = append(typeList, t)
	}
	sort.Strings(typeList)

	if len(typeList) == 1 {
		switch typeList[0] {
		case "object":
			return mergeObjects(objects)
		case "array":
			return mergeArrays(arrays)
		default:
			return &jsonschema.Schema{Type: typeList[0]}
		}
	}

	var anyOf []*jsonschema.Schema
	if len(objects) > 0 {
		anyOf = append(anyOf, mergeObjects(objects))
	}
	if len(arrays) > 0 {
		anyOf = append(anyOf, mergeArrays(arrays))
	}
	for _, t := range typeList {
		if t != "object" && t != "array" {
			anyOf = append(anyOf, &jsonschema.Schema{Type: t})
		}
	}
	if len(anyOf) == 1 {
		return anyOf[0]
	}
	return &jsonschema.Schema{AnyOf: anyOf}
}

func mergeObjects(schemas []*jsonschema.Schema) *jsonschema.Schema {
	if len(schemas) == 1 {
		return schemas[0]
	}
	props := make(map[string][]*jsonschema.Schema)
	for _, s := range schemas {
		if s.Properties == nil {
			continue
		}
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			props[pair.Key] = append(props[pair.Key], pair.Value)
		}
	}

	merged := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged.Properties.Set(k, merge(props[k]))
	}
	return merged
}

func mergeArrays(schemas []*jsonschema.Schema) *jsonschema.Schema {
	if len(schemas) == 1 {
		return schemas[0]
	}
	var items []*jsonschema.Schema
	for _, s := range schemas {
		if s.Items != nil {
			items = append(items, s.Items)
		}
	}
	out := &jsonschema.Schema{Type: "array"}
	if len(items) > 0 {
		out.Items = merge(items)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

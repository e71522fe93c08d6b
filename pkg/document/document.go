/*
Copyright 2025 The HCI E2E Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package document

import (
	"encoding/json"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Document is a nested key-value structure matching a platform resource schema.
// Values must be JSON-typed: string, int64, float64, bool, nil, json.Number,
// []interface{} or map[string]interface{}. Go int and int32 are not, and
// DeepCopy panics on them.
type Document = map[string]interface{}

// DeepCopy returns a copy of d sharing no mutable state with it.
func DeepCopy(d Document) Document {
	if d == nil {
		return nil
	}
	return runtime.DeepCopyJSON(d)
}

// Merge returns a new document built from a deep copy of base with computed
// laid on top. Computed always wins: nested maps present on both sides are
// merged key by key, every other value (including lists) from computed
// replaces the one in base, and keys only present in base are kept.
//
// Paths listed in replace (dot separated, e.g. "spec.template.spec.domain.firmware")
// are taken from computed wholesale instead of being merged, which lets a
// builder drop sub-documents it owns even when base still carries them.
func Merge(base, computed Document, replace ...string) Document {
	out := DeepCopy(base)
	if out == nil {
		out = Document{}
	}
	mergeInto(out, DeepCopy(computed), "", sets.New(replace...))
	return out
}

func mergeInto(dst, src Document, prefix string, replace sets.Set[string]) {
	for k, v := range src {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap && !replace.Has(path) {
			mergeInto(dstMap, srcMap, path, replace)
			continue
		}
		dst[k] = v
	}
}

// Get returns the value at path without copying it.
func Get(d Document, path ...string) (interface{}, bool) {
	v, found, err := unstructured.NestedFieldNoCopy(d, path...)
	if err != nil || !found {
		return nil, false
	}
	return v, true
}

// Map returns the map at path without copying it.
func Map(d Document, path ...string) (Document, bool) {
	v, ok := Get(d, path...)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

// Slice returns the list at path without copying it.
func Slice(d Document, path ...string) ([]interface{}, bool) {
	v, ok := Get(d, path...)
	if !ok {
		return nil, false
	}
	s, ok := v.([]interface{})
	return s, ok
}

// String returns the string at path.
func String(d Document, path ...string) (string, bool) {
	v, ok := Get(d, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the boolean at path.
func Bool(d Document, path ...string) (bool, bool) {
	v, ok := Get(d, path...)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Int64 returns the integer at path. Documents decoded by different codecs
// carry whole numbers as int64, float64 or json.Number; all are accepted.
func Int64(d Document, path ...string) (int64, bool) {
	v, ok := Get(d, path...)
	if !ok {
		return 0, false
	}
	return ToInt64(v)
}

// ToInt64 converts a JSON-typed numeric value to int64.
func ToInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// Set stores a deep copy of value at path, creating intermediate maps.
func Set(d Document, value interface{}, path ...string) error {
	return unstructured.SetNestedField(d, value, path...)
}

// Remove deletes the value at path if present.
func Remove(d Document, path ...string) {
	unstructured.RemoveNestedField(d, path...)
}

// Path joins path elements the way Merge expects them.
func Path(elems ...string) string {
	return strings.Join(elems, ".")
}

// FromStringMap converts a string map into its document representation.
func FromStringMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ToStringMap converts a decoded map into a string map, skipping non-string values.
func ToStringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

// FromStrings converts a string slice into its document representation.
func FromStrings(s []string) []interface{} {
	out := make([]interface{}, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}

// ToStrings converts a decoded list into a string slice, skipping non-string values.
func ToStrings(v interface{}) []string {
	l, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, val := range l {
		if s, ok := val.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

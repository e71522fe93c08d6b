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
	"fmt"

	utiljson "k8s.io/apimachinery/pkg/util/json"
	"sigs.k8s.io/yaml"
)

// ToJSON encodes d as compact JSON with sorted keys.
func ToJSON(d Document) ([]byte, error) {
	data, err := utiljson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document to JSON: %w", err)
	}
	return data, nil
}

// FromJSON decodes a JSON object. Whole numbers become int64.
func FromJSON(data []byte) (Document, error) {
	d := Document{}
	if err := utiljson.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}
	return d, nil
}

// DecodeJSONValue decodes any JSON value with the same number handling as FromJSON.
func DecodeJSONValue(data []byte) (interface{}, error) {
	var v interface{}
	if err := utiljson.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON value: %w", err)
	}
	return v, nil
}

// ToYAML encodes d as YAML with sorted keys.
func ToYAML(d Document) ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document to YAML: %w", err)
	}
	return data, nil
}

// FromYAML decodes a YAML mapping. Whole numbers become int64.
func FromYAML(data []byte) (Document, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML document: %w", err)
	}
	if string(j) == "null" {
		return Document{}, nil
	}
	return FromJSON(j)
}

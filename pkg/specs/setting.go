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

package specs

import (
	"strings"

	"github.com/pkg/errors"
	utiljson "k8s.io/apimachinery/pkg/util/json"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/document"
)

// Setting is implemented by every setting builder.
type Setting interface {
	Name() string
	ToDocument() (document.Document, error)
}

type settingFactory func(*SettingSpec) (Setting, error)

var settingRegistry map[string]settingFactory

func init() {
	settingRegistry = map[string]settingFactory{
		BackupTargetSettingName:   func(s *SettingSpec) (Setting, error) { return newBackupTargetSetting(s), nil },
		StorageNetworkSettingName: func(s *SettingSpec) (Setting, error) { return newStorageNetworkSetting(s), nil },
		OvercommitSettingName:     func(s *SettingSpec) (Setting, error) { return newOvercommitSetting(s), nil },
		ServerVersionSettingName:  func(s *SettingSpec) (Setting, error) { return newServerVersionSetting(s), nil },
	}
}

// SettingSpec is the generic setting builder. Value is rendered as compact
// JSON, except string values which are stored verbatim.
type SettingSpec struct {
	name string
	// Value is a decoded JSON value: a map, a list, or a plain string.
	Value interface{}
	// UseDefault clears the value so the platform falls back to Default.
	UseDefault bool
	// Default is the platform default; it is never submitted.
	Default string

	base document.Document
}

// NewSettingSpec returns a setting holding value.
func NewSettingSpec(name string, value interface{}) *SettingSpec {
	return &SettingSpec{name: name, Value: value}
}

func (s *SettingSpec) Name() string {
	return s.name
}

// EncodedValue renders Value the way the platform stores it.
func (s *SettingSpec) EncodedValue() (string, error) {
	if s.UseDefault || s.Value == nil {
		return "", nil
	}
	if str, ok := s.Value.(string); ok {
		return str, nil
	}
	data, err := utiljson.Marshal(s.Value)
	if err != nil {
		return "", errors.Wrapf(err, "failed to encode value of setting %s", s.name)
	}
	return string(data), nil
}

func (s *SettingSpec) ToDocument() (document.Document, error) {
	value, err := s.EncodedValue()
	if err != nil {
		return nil, err
	}
	computed := document.Document{
		"type": v1beta1.SettingType,
		"metadata": map[string]interface{}{
			"name": s.name,
		},
		"value": value,
	}
	if s.base == nil {
		return computed, nil
	}
	return document.Merge(s.base, computed), nil
}

// valueMap returns Value as a map, replacing any other value.
func (s *SettingSpec) valueMap() map[string]interface{} {
	m, ok := s.Value.(map[string]interface{})
	if !ok {
		m = map[string]interface{}{}
		s.Value = m
	}
	return m
}

func decodeSettingValue(value string) (interface{}, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return value, nil
	}
	return document.DecodeJSONValue([]byte(trimmed))
}

// SettingFromDocument rebuilds the setting variant registered under the
// document's name, or a generic SettingSpec when none is.
func SettingFromDocument(doc document.Document) (Setting, error) {
	if err := checkType(doc, v1beta1.SettingType); err != nil {
		return nil, err
	}
	name, err := requireString(doc, "metadata", "name")
	if err != nil {
		return nil, err
	}

	s := &SettingSpec{
		name:    name,
		Default: stringOr(doc, "", "default"),
		base:    document.DeepCopy(doc),
	}
	raw := stringOr(doc, "", "value")
	if raw == "" {
		s.UseDefault = true
	} else {
		s.Value, err = decodeSettingValue(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value of setting %s", name)
		}
	}

	if factory, ok := settingRegistry[name]; ok {
		return factory(s)
	}
	return s, nil
}

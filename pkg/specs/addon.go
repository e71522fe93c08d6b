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
	"strconv"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/document"
)

// Addon is implemented by every addon builder.
type Addon interface {
	Name() string
	ToDocument() (document.Document, error)
}

// addonFactory specializes a generic addon into its registered variant.
type addonFactory func(*AddonSpec) (Addon, error)

var addonRegistry map[string]addonFactory

func init() {
	addonRegistry = map[string]addonFactory{
		MonitoringAddonName: func(a *AddonSpec) (Addon, error) { return newMonitoringAddon(a), nil },
		LoggingAddonName:    func(a *AddonSpec) (Addon, error) { return newLoggingAddon(a), nil },
	}
}

// AddonSpec is the generic addon builder. Value holds the chart values and
// is rendered as YAML.
type AddonSpec struct {
	name      string
	Namespace string
	Repo      string
	Chart     string
	Version   string
	Enabled   bool
	Value     document.Document

	base document.Document
}

// NewAddonSpec returns a disabled addon with empty values.
func NewAddonSpec(name, namespace, repo, chart, version string) *AddonSpec {
	return &AddonSpec{
		name:      name,
		Namespace: namespace,
		Repo:      repo,
		Chart:     chart,
		Version:   version,
		Value:     document.Document{},
	}
}

func (a *AddonSpec) Name() string {
	return a.name
}

// SemVer parses the chart version.
func (a *AddonSpec) SemVer() (semver.Version, error) {
	v, err := semver.Parse(a.Version)
	if err != nil {
		return semver.Version{}, errors.Wrapf(err, "invalid version of addon %s", a.name)
	}
	return v, nil
}

func (a *AddonSpec) ToDocument() (document.Document, error) {
	if _, err := a.SemVer(); err != nil {
		return nil, err
	}
	valuesContent := ""
	if len(a.Value) > 0 {
		data, err := document.ToYAML(a.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode values of addon %s", a.name)
		}
		valuesContent = string(data)
	}

	computed := document.Document{
		"type": v1beta1.AddonType,
		"metadata": map[string]interface{}{
			"name":      a.name,
			"namespace": a.Namespace,
		},
		"spec": map[string]interface{}{
			"repo":          a.Repo,
			"chart":         a.Chart,
			"version":       a.Version,
			"enabled":       a.Enabled,
			"valuesContent": valuesContent,
		},
	}
	if a.base == nil {
		return computed, nil
	}
	return document.Merge(a.base, computed), nil
}

// AddonFromDocument rebuilds the addon variant registered under the
// document's name, or a generic AddonSpec when none is.
func AddonFromDocument(doc document.Document) (Addon, error) {
	if err := checkType(doc, v1beta1.AddonType); err != nil {
		return nil, err
	}
	name, err := requireString(doc, "metadata", "name")
	if err != nil {
		return nil, err
	}
	spec, err := requireMap(doc, "spec")
	if err != nil {
		return nil, err
	}
	value, err := document.FromYAML([]byte(stringOr(spec, "", "valuesContent")))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid values of addon %s", name)
	}
	enabled, _ := document.Bool(spec, "enabled")

	a := &AddonSpec{
		name:      name,
		Namespace: stringOr(doc, "", "metadata", "namespace"),
		Repo:      stringOr(spec, "", "repo"),
		Chart:     stringOr(spec, "", "chart"),
		Version:   stringOr(spec, "", "version"),
		Enabled:   enabled,
		Value:     value,
		base:      document.DeepCopy(doc),
	}
	if factory, ok := addonRegistry[name]; ok {
		return factory(a)
	}
	return a, nil
}

// Resources are the requests and limits of one chart component.
type Resources struct {
	CPURequest    string
	MemoryRequest string
	CPULimit      string
	MemoryLimit   string
}

// ComponentConfig is a view over the values of one chart component. Its
// convenience fields are written back into the addon values by Sync.
type ComponentConfig struct {
	Resources Resources

	values document.Document
	path   []string
}

func newComponentConfig(values document.Document, path ...string) ComponentConfig {
	c := ComponentConfig{values: values, path: path}
	c.Resources = Resources{
		CPURequest:    scalarString(values, c.at("resources", "requests", "cpu")...),
		MemoryRequest: scalarString(values, c.at("resources", "requests", "memory")...),
		CPULimit:      scalarString(values, c.at("resources", "limits", "cpu")...),
		MemoryLimit:   scalarString(values, c.at("resources", "limits", "memory")...),
	}
	return c
}

func (c *ComponentConfig) at(path ...string) []string {
	out := make([]string, 0, len(c.path)+len(path))
	out = append(out, c.path...)
	return append(out, path...)
}

// Sync writes the resources back into the addon values.
func (c *ComponentConfig) Sync() error {
	fields := []struct {
		value string
		path  []string
	}{
		{c.Resources.CPURequest, c.at("resources", "requests", "cpu")},
		{c.Resources.MemoryRequest, c.at("resources", "requests", "memory")},
		{c.Resources.CPULimit, c.at("resources", "limits", "cpu")},
		{c.Resources.MemoryLimit, c.at("resources", "limits", "memory")},
	}
	for _, f := range fields {
		if err := setScalar(c.values, f.value, f.path...); err != nil {
			return err
		}
	}
	return nil
}

// scalarString formats the scalar at path, or returns "" when there is none.
func scalarString(doc document.Document, path ...string) string {
	v, ok := document.Get(doc, path...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	if n, ok := document.ToInt64(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return ""
}

// setScalar stores value at path unless it is empty or already formats
// the same, so numbers read from the values keep their type.
func setScalar(doc document.Document, value string, path ...string) error {
	if value == "" || scalarString(doc, path...) == value {
		return nil
	}
	return document.Set(doc, value, path...)
}

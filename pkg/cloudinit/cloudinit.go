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

// Package cloudinit reads and writes cloud-config user data.
package cloudinit

import (
	"fmt"
	"reflect"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/hcitest/hci-e2e/pkg/document"
)

// Header is the first line of every cloud-config document.
const Header = "#cloud-config"

const (
	keyPackages = "packages"
	keyRunCmd   = "runcmd"
)

// HasHeader reports whether data starts with the cloud-config header line.
func HasHeader(data string) bool {
	return strings.HasPrefix(strings.TrimLeft(data, " \t\r\n"), Header)
}

// EnsureHeader prefixes non-empty data with the header line when it is missing.
func EnsureHeader(data string) string {
	if data == "" || HasHeader(data) {
		return data
	}
	return Header + "\n" + data
}

// Parse decodes cloud-config data. Empty data yields an empty config.
func Parse(data string) (document.Document, error) {
	if strings.TrimSpace(data) == "" {
		return document.Document{}, nil
	}
	cfg, err := document.FromYAML([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("invalid cloud-config: %w", err)
	}
	return cfg, nil
}

// Render encodes cfg back into cloud-config data with the header restored.
func Render(cfg document.Document) (string, error) {
	if len(cfg) == 0 {
		return Header + "\n", nil
	}
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render cloud-config: %w", err)
	}
	return Header + "\n" + string(body), nil
}

// HasPackage reports whether pkg is listed under packages.
func HasPackage(cfg document.Document, pkg string) bool {
	return indexOf(list(cfg, keyPackages), pkg) >= 0
}

// SetPackage adds pkg to packages exactly once, or removes every occurrence.
func SetPackage(cfg document.Document, pkg string, present bool) {
	setEntry(cfg, keyPackages, pkg, present)
}

// HasRunCmd reports whether cmd is listed under runcmd.
func HasRunCmd(cfg document.Document, cmd []string) bool {
	return indexOf(list(cfg, keyRunCmd), document.FromStrings(cmd)) >= 0
}

// SetRunCmd adds cmd to runcmd exactly once, or removes every occurrence.
func SetRunCmd(cfg document.Document, cmd []string, present bool) {
	setEntry(cfg, keyRunCmd, document.FromStrings(cmd), present)
}

func setEntry(cfg document.Document, key string, entry interface{}, present bool) {
	entries := list(cfg, key)
	kept := make([]interface{}, 0, len(entries)+1)
	for _, e := range entries {
		if !reflect.DeepEqual(e, entry) {
			kept = append(kept, e)
		}
	}
	if present {
		kept = append(kept, entry)
	}
	if len(kept) == 0 {
		delete(cfg, key)
		return
	}
	cfg[key] = kept
}

func list(cfg document.Document, key string) []interface{} {
	l, _ := cfg[key].([]interface{})
	return l
}

func indexOf(entries []interface{}, entry interface{}) int {
	for i, e := range entries {
		if reflect.DeepEqual(e, entry) {
			return i
		}
	}
	return -1
}

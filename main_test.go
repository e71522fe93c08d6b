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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/document"
	"github.com/hcitest/hci-e2e/pkg/resources"
	"github.com/hcitest/hci-e2e/pkg/specs"
	"github.com/hcitest/hci-e2e/test/helpers/apiserver"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectedErr string
		check       func(t *testing.T, config *specgenConfig)
	}{
		{
			name: "generates a name",
			args: []string{"--kind", "vm"},
			check: func(t *testing.T, config *specgenConfig) {
				assert.True(t, strings.HasPrefix(config.name, "vm-"))
				assert.Equal(t, "default", config.namespace)
				assert.Equal(t, outputYAML, config.output)
			},
		},
		{
			name: "repeated networks",
			args: []string{"--kind", "vm", "--name", "vm1", "--network", "default/a", "--network", "default/b", "-o", "json"},
			check: func(t *testing.T, config *specgenConfig) {
				assert.Equal(t, "vm1", config.name)
				assert.Equal(t, []string{"default/a", "default/b"}, config.networks)
				assert.Equal(t, outputJSON, config.output)
			},
		},
		{
			name:        "missing kind",
			args:        []string{},
			expectedErr: "--kind must be one of",
		},
		{
			name:        "unknown output",
			args:        []string{"--kind", "vm", "--output", "xml"},
			expectedErr: "--output must be yaml or json",
		},
		{
			name:        "unknown flag",
			args:        []string{"--kind", "vm", "--bogus"},
			expectedErr: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &specgenConfig{}
			err := parseFlags(config, tt.args)
			if tt.expectedErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, "4Gi", parseSize("4").String())
	assert.False(t, parseSize("4").IsLiteral())
	assert.Equal(t, "512Mi", parseSize("512Mi").String())
	assert.True(t, parseSize("512Mi").IsLiteral())
}

func parsedConfig(t *testing.T, args ...string) *specgenConfig {
	t.Helper()
	config := &specgenConfig{}
	require.NoError(t, parseFlags(config, args))
	return config
}

func TestRender(t *testing.T) {
	tests := []struct {
		args         []string
		expectedType string
	}{
		{[]string{"--kind", "vm", "--image", "default/ubuntu", "--secure-boot"}, v1beta1.VirtualMachineType},
		{[]string{"--kind", "template"}, v1beta1.TemplateVersionType},
		{[]string{"--kind", "volume", "--storage-class", "fast"}, v1beta1.PersistentVolumeClaimType},
		{[]string{"--kind", "image", "--url", "http://images.local/a.img"}, v1beta1.ImageType},
		{[]string{"--kind", "network", "--vlan", "100"}, v1beta1.NetworkAttachmentType},
		{[]string{"--kind", "backup", "--vm", "vm1", "--snapshot"}, v1beta1.BackupType},
		{[]string{"--kind", "restore", "--new-vm", "--vm", "vm1"}, v1beta1.RestoreType},
		{[]string{"--kind", "setting", "--name", "overcommit-config", "--value", `{"cpu":2000}`}, v1beta1.SettingType},
		{[]string{"--kind", "addon", "--addon", specs.LoggingAddonName, "--enable"}, v1beta1.AddonType},
	}

	for _, tt := range tests {
		t.Run(tt.args[1], func(t *testing.T) {
			doc, err := render(parsedConfig(t, tt.args...))
			require.NoError(t, err)
			docType, _ := document.String(doc, "type")
			assert.Equal(t, tt.expectedType, docType)
		})
	}
}

func TestRender_Errors(t *testing.T) {
	_, err := render(parsedConfig(t, "--kind", "network"))
	assert.Error(t, err)

	_, err = render(parsedConfig(t, "--kind", "addon", "--addon", "unknown"))
	assert.Error(t, err)

	_, err = render(parsedConfig(t, "--kind", "vm", "--user-data-file", filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, err)

	_, err = render(parsedConfig(t, "--kind", "vm", "--cpu", "0"))
	assert.Error(t, err)
}

func TestRun_UserData(t *testing.T) {
	userData := filepath.Join(t.TempDir(), "user-data")
	require.NoError(t, os.WriteFile(userData, []byte("packages:\n- qemu-guest-agent\n"), 0o600))

	var out bytes.Buffer
	config := parsedConfig(t, "--kind", "vm", "--name", "vm1", "--user-data-file", userData, "-o", "json")
	require.NoError(t, run(context.Background(), config, &out, logr.Discard()))

	doc, err := document.FromJSON(out.Bytes())
	require.NoError(t, err)
	vm, err := specs.VMSpecFromDocument(doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(vm.UserData, "#cloud-config"))
	assert.Contains(t, vm.UserData, "qemu-guest-agent")
}

func TestRun_Apply(t *testing.T) {
	server := apiserver.NewServer()
	t.Cleanup(server.Close)
	t.Setenv("HCI_ENDPOINT", server.URL)

	var out bytes.Buffer
	config := parsedConfig(t, "--kind", "network", "--name", "vlan100", "--vlan", "100", "--apply")
	require.NoError(t, run(context.Background(), config, &out, logr.Discard()))

	stored, ok := server.Object(resources.Networks, "default", "vlan100")
	require.True(t, ok)
	uid, _ := document.String(stored, "metadata", "uid")
	assert.Contains(t, out.String(), uid)

	config = parsedConfig(t, "--kind", "restore", "--apply")
	assert.Error(t, run(context.Background(), config, &out, logr.Discard()))
}

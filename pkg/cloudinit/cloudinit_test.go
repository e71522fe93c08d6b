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

package cloudinit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var enableAgent = []string{"systemctl", "enable", "--now", "qemu-guest-agent.service"}

func TestParseRender(t *testing.T) {
	cfg, err := Parse("#cloud-config\npackage_update: true\n")
	require.NoError(t, err)
	assert.Equal(t, true, cfg["package_update"])

	out, err := Render(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, Header+"\n"))
	assert.Contains(t, out, "package_update: true")

	empty, err := Parse("  ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Parse("#cloud-config\nusers: [unclosed")
	assert.Error(t, err)
}

func TestEnsureHeader(t *testing.T) {
	assert.Equal(t, "", EnsureHeader(""))
	assert.Equal(t, "#cloud-config\nusers: []", EnsureHeader("users: []"))
	assert.Equal(t, "#cloud-config\nusers: []", EnsureHeader("#cloud-config\nusers: []"))
	assert.True(t, HasHeader("\n#cloud-config"))
}

func TestSetPackageAndRunCmd(t *testing.T) {
	cfg, err := Parse("#cloud-config\npackage_update: true")
	require.NoError(t, err)

	SetPackage(cfg, "qemu-guest-agent", true)
	SetPackage(cfg, "qemu-guest-agent", true)
	SetRunCmd(cfg, enableAgent, true)
	SetRunCmd(cfg, enableAgent, true)

	assert.Len(t, cfg["packages"], 1)
	assert.Len(t, cfg["runcmd"], 1)
	assert.True(t, HasPackage(cfg, "qemu-guest-agent"))
	assert.True(t, HasRunCmd(cfg, enableAgent))

	out, err := Render(cfg)
	require.NoError(t, err)
	reparsed, err := Parse(out)
	require.NoError(t, err)
	assert.True(t, HasRunCmd(reparsed, enableAgent))

	SetPackage(cfg, "qemu-guest-agent", false)
	SetRunCmd(cfg, enableAgent, false)
	assert.NotContains(t, cfg, "packages")
	assert.NotContains(t, cfg, "runcmd")
	assert.False(t, HasRunCmd(cfg, enableAgent))
}

func TestSetRunCmd_KeepsOtherCommands(t *testing.T) {
	cfg, err := Parse("#cloud-config\nruncmd:\n- echo hello\n- - systemctl\n  - enable\n  - --now\n  - qemu-guest-agent.service\n")
	require.NoError(t, err)
	assert.True(t, HasRunCmd(cfg, enableAgent))

	SetRunCmd(cfg, enableAgent, false)
	assert.Equal(t, []interface{}{"echo hello"}, cfg["runcmd"])
}

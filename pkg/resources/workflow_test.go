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

package resources

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/client"
	"github.com/hcitest/hci-e2e/pkg/document"
	"github.com/hcitest/hci-e2e/pkg/specs"
	"github.com/hcitest/hci-e2e/test/helpers/apiserver"
)

func newTestManager(t *testing.T) (*Manager, *apiserver.Server) {
	t.Helper()
	server := apiserver.NewServer()
	t.Cleanup(func() {
		server.Close()
	})
	c, err := client.New(client.Config{
		Endpoint: server.URL,
		QPS:      100,
		Burst:    100,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return NewManager(c), server
}

func TestManager_VMWorkflow(t *testing.T) {
	m, server := newTestManager(t)
	ctx := context.Background()

	image, err := m.CreateImage(ctx, "ubuntu", "default", specs.NewImageSpec("ubuntu-22.04", "http://images.local/ubuntu.img"))
	require.NoError(t, err)
	assert.Equal(t, specs.ImageSourceDownload, image.SourceType)

	network, err := m.CreateNetwork(ctx, "vlan100", "default", specs.NewNetworkSpec(100, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(100), network.VLAN)

	vm := specs.NewVMSpec(2, v1beta1.Gigabytes(4), specs.WithDescription("workflow"))
	vm.AddImage("disk-0", specs.ImageID("default", "ubuntu"), v1beta1.Gigabytes(10))
	vm.AddNetwork("nic-1", specs.NetworkID("default", "vlan100"))
	created, err := m.CreateVM(ctx, "vm1", "default", vm)
	require.NoError(t, err)
	assert.Equal(t, "workflow", created.Description)
	_, ok := server.Object(VirtualMachines, "default", "vm1")
	require.True(t, ok)

	require.NoError(t, m.SetRunStrategy(ctx, "default", "vm1", v1beta1.RunStrategyHalted))
	fetched, err := m.GetVM(ctx, "default", "vm1")
	require.NoError(t, err)
	assert.Equal(t, v1beta1.RunStrategyHalted, fetched.RunStrategy)
	require.Len(t, fetched.Volumes, 1)
	assert.Equal(t, "disk-0", fetched.Volumes[0].Name())
	assert.Equal(t, "workflow", fetched.Description)
	stored, _ := server.Object(VirtualMachines, "default", "vm1")
	version, _ := document.String(stored, "metadata", "resourceVersion")
	assert.Equal(t, "2", version)

	require.NoError(t, m.DeleteVM(ctx, "default", "vm1"))
	_, err = m.GetVM(ctx, "default", "vm1")
	assert.True(t, client.IsNotFound(err))
}

func TestManager_VolumeResize(t *testing.T) {
	m, server := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateVolume(ctx, "data", "default", "", specs.NewVolumeSpec(v1beta1.Gigabytes(5), specs.WithVolumeDescription("scratch")))
	require.NoError(t, err)

	resized, err := m.ResizeVolume(ctx, "default", "data", v1beta1.Gigabytes(10))
	require.NoError(t, err)
	assert.Equal(t, "10Gi", resized.Size.String())
	assert.Equal(t, "scratch", resized.Description)

	stored, _ := server.Object(Volumes, "default", "data")
	storage, _ := document.String(stored, "spec", "resources", "requests", "storage")
	assert.Equal(t, "10Gi", storage)
}

func TestManager_TemplateBackupRestore(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	template := specs.NewTemplateSpec(1, v1beta1.Gigabytes(2))
	template.AddVolume("disk-0", v1beta1.Gigabytes(8))
	version, rebuilt, err := m.CreateTemplateVersion(ctx, "small", "default", template)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(version, "small-"))
	assert.Equal(t, int64(1), rebuilt.CPUCores)

	backup, err := m.Backup(ctx, "nightly", "default", "vm1", specs.ForBackup())
	require.NoError(t, err)
	assert.Equal(t, "vm1", backup.VMName)

	restoreName, restore, err := m.Restore(ctx, "nightly", "default", "", specs.RestoreForNew("vm1-copy", ""))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(restoreName, "restore-nightly-"))
	assert.True(t, restore.NewVM())

	restoreName, restore, err = m.Restore(ctx, "nightly", "default", "vm1", specs.RestoreForExisting(true))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(restoreName, "restore-nightly-"))
	assert.False(t, restore.NewVM())
	assert.True(t, restore.DeleteVolumes())
}

func TestManager_UpdateSetting(t *testing.T) {
	m, server := newTestManager(t)
	ctx := context.Background()

	server.Put(Settings, document.Document{
		"type":     v1beta1.SettingType,
		"metadata": map[string]interface{}{"name": specs.OvercommitSettingName},
		"default":  `{"cpu":1600,"memory":150,"storage":200}`,
		"value":    "",
	})

	updated, err := m.UpdateSetting(ctx, specs.OvercommitSettingName, func(s specs.Setting) error {
		overcommit := s.(*specs.OvercommitSetting)
		overcommit.UseDefault = false
		overcommit.CPU = 2000
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), updated.(*specs.OvercommitSetting).CPU)

	stored, _ := server.Object(Settings, "", specs.OvercommitSettingName)
	raw, _ := document.String(stored, "value")
	var value map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &value))
	assert.EqualValues(t, 2000, value["cpu"])
	def, _ := document.String(stored, "default")
	assert.Equal(t, `{"cpu":1600,"memory":150,"storage":200}`, def)
}

func TestManager_UpdateAddon(t *testing.T) {
	m, server := newTestManager(t)
	ctx := context.Background()

	doc, err := specs.NewMonitoringAddon().ToDocument()
	require.NoError(t, err)
	require.NoError(t, document.Set(doc, "1", "metadata", "resourceVersion"))
	server.Put(Addons, doc)

	updated, err := m.UpdateAddon(ctx, specs.MonitoringAddonNamespace, specs.MonitoringAddonName, func(a specs.Addon) error {
		monitoring := a.(*specs.MonitoringAddon)
		monitoring.Enabled = true
		monitoring.MetricsStore.Retention = "10d"
		return nil
	})
	require.NoError(t, err)
	monitoring := updated.(*specs.MonitoringAddon)
	assert.True(t, monitoring.Enabled)
	assert.Equal(t, "10d", monitoring.MetricsStore.Retention)

	fetched, err := m.GetAddon(ctx, specs.MonitoringAddonNamespace, specs.MonitoringAddonName)
	require.NoError(t, err)
	assert.Equal(t, "10d", fetched.(*specs.MonitoringAddon).MetricsStore.Retention)
}

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

// Package resources joins the spec builders with a client.Transport: it
// submits rendered documents and rebuilds builders from the responses.
package resources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/client"
	"github.com/hcitest/hci-e2e/pkg/document"
	"github.com/hcitest/hci-e2e/pkg/specs"
)

// Collections of the platform REST API.
const (
	VirtualMachines  = "kubevirt.io.virtualmachines"
	Volumes          = "persistentvolumeclaims"
	TemplateVersions = "harvesterhci.io.virtualmachinetemplateversions"
	Backups          = "harvesterhci.io.virtualmachinebackups"
	Restores         = "harvesterhci.io.virtualmachinerestores"
	Images           = "harvesterhci.io.virtualmachineimages"
	Networks         = "k8s.cni.cncf.io.network-attachment-definitions"
	Addons           = "harvesterhci.io.addons"
	Settings         = "harvesterhci.io.settings"
)

// conflictBackoff bounds fetch-mutate-resubmit retries after a conflict.
var conflictBackoff = wait.Backoff{
	Steps:    5,
	Duration: 10 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
}

// Manager drives resources through a Transport.
type Manager struct {
	transport client.Transport
}

func NewManager(transport client.Transport) *Manager {
	return &Manager{transport: transport}
}

func isConflict(err error) bool {
	var statusErr *client.StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusConflict
}

// update fetches an object, lets mutate rewrite it and submits the result.
// It starts over from a fresh fetch when the platform reports a conflict.
func (m *Manager) update(ctx context.Context, collection, namespace, name string, mutate func(document.Document) (document.Document, error)) (document.Document, error) {
	log := ctrl.LoggerFrom(ctx)
	var updated document.Document
	err := wait.ExponentialBackoffWithContext(ctx, conflictBackoff, func(ctx context.Context) (bool, error) {
		_, current, err := m.transport.Get(ctx, collection, namespace, name)
		if err != nil {
			return false, err
		}
		doc, err := mutate(current)
		if err != nil {
			return false, err
		}
		_, updated, err = m.transport.Update(ctx, collection, doc)
		if isConflict(err) {
			log.V(1).Info(fmt.Sprintf("Conflict updating %s %s/%s, retrying", collection, namespace, name))
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %s/%s: %w", collection, namespace, name, err)
	}
	return updated, nil
}

// CreateVM submits a new machine and returns the builder of what was stored.
func (m *Manager) CreateVM(ctx context.Context, name, namespace string, spec *specs.VMSpec) (*specs.VMSpec, error) {
	doc, err := spec.ToDocument(name, namespace, "")
	if err != nil {
		return nil, err
	}
	ctrl.LoggerFrom(ctx).Info(fmt.Sprintf("Creating virtual machine %s/%s", namespace, name))
	_, created, err := m.transport.Create(ctx, VirtualMachines, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual machine %s/%s: %w", namespace, name, err)
	}
	return specs.VMSpecFromDocument(created)
}

func (m *Manager) GetVM(ctx context.Context, namespace, name string) (*specs.VMSpec, error) {
	_, doc, err := m.transport.Get(ctx, VirtualMachines, namespace, name)
	if err != nil {
		return nil, err
	}
	return specs.VMSpecFromDocument(doc)
}

// UpdateVM applies mutate to the stored machine and resubmits it. Fields
// the builder does not manage are carried over from the stored document.
func (m *Manager) UpdateVM(ctx context.Context, namespace, name string, mutate func(*specs.VMSpec) error) (*specs.VMSpec, error) {
	updated, err := m.update(ctx, VirtualMachines, namespace, name, func(current document.Document) (document.Document, error) {
		spec, err := specs.VMSpecFromDocument(current)
		if err != nil {
			return nil, err
		}
		if err := mutate(spec); err != nil {
			return nil, err
		}
		return spec.ToDocument(name, namespace, "")
	})
	if err != nil {
		return nil, err
	}
	return specs.VMSpecFromDocument(updated)
}

// SetRunStrategy starts or stops a machine through its run strategy.
func (m *Manager) SetRunStrategy(ctx context.Context, namespace, name string, strategy v1beta1.RunStrategy) error {
	_, err := m.UpdateVM(ctx, namespace, name, func(spec *specs.VMSpec) error {
		spec.RunStrategy = strategy
		return spec.RunStrategy.Validate()
	})
	return err
}

func (m *Manager) DeleteVM(ctx context.Context, namespace, name string) error {
	_, _, err := m.transport.Delete(ctx, VirtualMachines, namespace, name)
	if err != nil && !client.IsNotFound(err) {
		return fmt.Errorf("failed to delete virtual machine %s/%s: %w", namespace, name, err)
	}
	return nil
}

// CreateVolume submits a new volume, cloned from imageID when it is not empty.
func (m *Manager) CreateVolume(ctx context.Context, name, namespace, imageID string, spec *specs.VolumeSpec) (*specs.VolumeSpec, error) {
	_, created, err := m.transport.Create(ctx, Volumes, spec.ToDocument(name, namespace, imageID))
	if err != nil {
		return nil, fmt.Errorf("failed to create volume %s/%s: %w", namespace, name, err)
	}
	return specs.VolumeSpecFromDocument(created)
}

// ResizeVolume grows a volume to size.
func (m *Manager) ResizeVolume(ctx context.Context, namespace, name string, size v1beta1.Size) (*specs.VolumeSpec, error) {
	updated, err := m.update(ctx, Volumes, namespace, name, func(current document.Document) (document.Document, error) {
		spec, err := specs.VolumeSpecFromDocument(current)
		if err != nil {
			return nil, err
		}
		spec.Size = size
		return spec.ToDocument(name, namespace, ""), nil
	})
	if err != nil {
		return nil, err
	}
	return specs.VolumeSpecFromDocument(updated)
}

func (m *Manager) CreateImage(ctx context.Context, name, namespace string, spec *specs.ImageSpec) (*specs.ImageSpec, error) {
	_, created, err := m.transport.Create(ctx, Images, spec.ToDocument(name, namespace))
	if err != nil {
		return nil, fmt.Errorf("failed to create image %s/%s: %w", namespace, name, err)
	}
	return specs.ImageSpecFromDocument(created)
}

func (m *Manager) CreateNetwork(ctx context.Context, name, namespace string, spec *specs.NetworkSpec) (*specs.NetworkSpec, error) {
	doc, err := spec.ToDocument(name, namespace)
	if err != nil {
		return nil, err
	}
	_, created, err := m.transport.Create(ctx, Networks, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create network %s/%s: %w", namespace, name, err)
	}
	return specs.NetworkSpecFromDocument(created)
}

// CreateTemplateVersion submits a new version of the template name. The
// platform names the version; it is returned with the rebuilt template.
func (m *Manager) CreateTemplateVersion(ctx context.Context, name, namespace string, spec *specs.TemplateSpec) (string, *specs.TemplateSpec, error) {
	doc, err := spec.ToDocument(name, namespace)
	if err != nil {
		return "", nil, err
	}
	_, created, err := m.transport.Create(ctx, TemplateVersions, doc)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create version of template %s/%s: %w", namespace, name, err)
	}
	version, _ := document.String(created, "metadata", "name")
	rebuilt, err := specs.TemplateSpecFromDocument(created)
	if err != nil {
		return "", nil, err
	}
	return version, rebuilt, nil
}

// Backup takes a backup or snapshot, depending on spec, of the machine vmName.
func (m *Manager) Backup(ctx context.Context, name, namespace, vmName string, spec *specs.BackupSpec) (*specs.BackupSpec, error) {
	_, created, err := m.transport.Create(ctx, Backups, spec.ToDocument(name, namespace, vmName))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %s/%s: %w", spec.Kind, namespace, name, err)
	}
	return specs.BackupSpecFromDocument(created)
}

// Restore restores the backup name. existingVM is the machine replaced by
// an in-place restore. The created restore is returned with its
// platform-assigned name.
func (m *Manager) Restore(ctx context.Context, name, namespace, existingVM string, spec *specs.RestoreSpec) (string, *specs.RestoreSpec, error) {
	_, created, err := m.transport.Create(ctx, Restores, spec.ToDocument(name, namespace, existingVM))
	if err != nil {
		return "", nil, fmt.Errorf("failed to restore backup %s/%s: %w", namespace, name, err)
	}
	restoreName, _ := document.String(created, "metadata", "name")
	rebuilt, err := specs.RestoreSpecFromDocument(created)
	if err != nil {
		return "", nil, err
	}
	return restoreName, rebuilt, nil
}

func (m *Manager) GetSetting(ctx context.Context, name string) (specs.Setting, error) {
	_, doc, err := m.transport.Get(ctx, Settings, "", name)
	if err != nil {
		return nil, err
	}
	return specs.SettingFromDocument(doc)
}

// UpdateSetting applies mutate to the stored setting and resubmits it.
func (m *Manager) UpdateSetting(ctx context.Context, name string, mutate func(specs.Setting) error) (specs.Setting, error) {
	updated, err := m.update(ctx, Settings, "", name, func(current document.Document) (document.Document, error) {
		setting, err := specs.SettingFromDocument(current)
		if err != nil {
			return nil, err
		}
		if err := mutate(setting); err != nil {
			return nil, err
		}
		return setting.ToDocument()
	})
	if err != nil {
		return nil, err
	}
	return specs.SettingFromDocument(updated)
}

func (m *Manager) GetAddon(ctx context.Context, namespace, name string) (specs.Addon, error) {
	_, doc, err := m.transport.Get(ctx, Addons, namespace, name)
	if err != nil {
		return nil, err
	}
	return specs.AddonFromDocument(doc)
}

// UpdateAddon applies mutate to the stored addon and resubmits it.
func (m *Manager) UpdateAddon(ctx context.Context, namespace, name string, mutate func(specs.Addon) error) (specs.Addon, error) {
	updated, err := m.update(ctx, Addons, namespace, name, func(current document.Document) (document.Document, error) {
		addon, err := specs.AddonFromDocument(current)
		if err != nil {
			return nil, err
		}
		if err := mutate(addon); err != nil {
			return nil, err
		}
		return addon.ToDocument()
	})
	if err != nil {
		return nil, err
	}
	return specs.AddonFromDocument(updated)
}

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
	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/document"
)

// BackupKind selects between a backup to the backup target and an
// in-cluster snapshot.
type BackupKind string

const (
	BackupKindBackup   BackupKind = "backup"
	BackupKindSnapshot BackupKind = "snapshot"
)

// BackupSpec builds backup and snapshot documents for a machine.
type BackupSpec struct {
	Kind BackupKind
	// VMName is the source machine of a reconstructed backup.
	VMName string

	base document.Document
}

// ForBackup returns a builder for backups to the configured backup target.
func ForBackup() *BackupSpec {
	return &BackupSpec{Kind: BackupKindBackup}
}

// ForSnapshot returns a builder for in-cluster snapshots.
func ForSnapshot() *BackupSpec {
	return &BackupSpec{Kind: BackupKindSnapshot}
}

// ToDocument renders a backup called name of the machine vmName.
func (b *BackupSpec) ToDocument(name, namespace, vmName string) document.Document {
	computed := document.Document{
		"type": v1beta1.BackupType,
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]interface{}{
			"source": map[string]interface{}{
				"apiGroup": v1beta1.KubevirtAPIGroup,
				"kind":     v1beta1.VirtualMachineKind,
				"name":     vmName,
			},
			"type": string(b.Kind),
		},
	}
	if b.base == nil {
		return computed
	}
	return document.Merge(b.base, computed)
}

// BackupSpecFromDocument rebuilds a backup builder from a backup document.
func BackupSpecFromDocument(doc document.Document) (*BackupSpec, error) {
	if err := checkType(doc, v1beta1.BackupType); err != nil {
		return nil, err
	}
	vmName, err := requireString(doc, "spec", "source", "name")
	if err != nil {
		return nil, err
	}
	return &BackupSpec{
		Kind:   BackupKind(stringOr(doc, string(BackupKindBackup), "spec", "type")),
		VMName: vmName,
		base:   document.DeepCopy(doc),
	}, nil
}

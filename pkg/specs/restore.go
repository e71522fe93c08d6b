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

const (
	deletionPolicyDelete = "delete"
	deletionPolicyRetain = "retain"
)

// RestoreSpec builds restore documents for a backup. Use RestoreForNew or
// RestoreForExisting to construct one.
type RestoreSpec struct {
	newVM bool
	// vmName is kept for callers tracking the machine they expect; the
	// platform names the new machine.
	vmName        string
	namespace     string
	deleteVolumes bool

	base document.Document
}

// RestoreForNew restores a backup into a new machine. A non-empty namespace
// overrides the namespace the restore is created in.
func RestoreForNew(vmName, namespace string) *RestoreSpec {
	return &RestoreSpec{
		newVM:     true,
		vmName:    vmName,
		namespace: namespace,
	}
}

// RestoreForExisting restores a backup over an existing machine, deleting
// or retaining the volumes it replaces.
func RestoreForExisting(deleteVolumes bool) *RestoreSpec {
	return &RestoreSpec{deleteVolumes: deleteVolumes}
}

// NewVM reports whether the restore creates a new machine.
func (r *RestoreSpec) NewVM() bool {
	return r.newVM
}

// VMName is the machine name given to RestoreForNew.
func (r *RestoreSpec) VMName() string {
	return r.vmName
}

// DeleteVolumes reports whether replaced volumes are deleted.
func (r *RestoreSpec) DeleteVolumes() bool {
	return r.deleteVolumes
}

// DeletionPolicy is the policy applied to the volumes of a replaced machine.
func (r *RestoreSpec) DeletionPolicy() string {
	if r.deleteVolumes {
		return deletionPolicyDelete
	}
	return deletionPolicyRetain
}

// ToDocument renders a restore of the backup name in namespace. existingVM
// is the machine replaced by an in-place restore and is ignored when
// restoring into a new machine.
func (r *RestoreSpec) ToDocument(name, namespace, existingVM string) document.Document {
	restoreNamespace := namespace
	spec := map[string]interface{}{
		"virtualMachineBackupName":      name,
		"virtualMachineBackupNamespace": namespace,
	}
	target := map[string]interface{}{
		"apiGroup": v1beta1.KubevirtAPIGroup,
		"kind":     v1beta1.VirtualMachineKind,
		"name":     "",
	}
	if r.newVM {
		spec["newVM"] = true
		if r.namespace != "" {
			restoreNamespace = r.namespace
		}
	} else {
		spec["deletionPolicy"] = r.DeletionPolicy()
		target["name"] = existingVM
	}
	spec["target"] = target

	computed := document.Document{
		"type": v1beta1.RestoreType,
		"metadata": map[string]interface{}{
			"generateName": "restore-" + name + "-",
			"name":         "",
			"namespace":    restoreNamespace,
		},
		"spec": spec,
	}
	if r.base == nil {
		return computed
	}

	out := document.Merge(r.base, computed)
	if r.newVM {
		document.Remove(out, "spec", "deletionPolicy")
	} else {
		document.Remove(out, "spec", "newVM")
	}
	return out
}

// RestoreSpecFromDocument rebuilds a restore builder from a restore document.
func RestoreSpecFromDocument(doc document.Document) (*RestoreSpec, error) {
	if err := checkType(doc, v1beta1.RestoreType); err != nil {
		return nil, err
	}
	spec, err := requireMap(doc, "spec")
	if err != nil {
		return nil, err
	}

	r := &RestoreSpec{base: document.DeepCopy(doc)}
	if newVM, _ := document.Bool(spec, "newVM"); newVM {
		r.newVM = true
		r.vmName = stringOr(spec, "", "target", "name")
		namespace := stringOr(doc, "", "metadata", "namespace")
		if namespace != stringOr(spec, "", "virtualMachineBackupNamespace") {
			r.namespace = namespace
		}
		return r, nil
	}

	policy, err := requireString(spec, "deletionPolicy")
	if err != nil {
		return nil, err
	}
	r.deleteVolumes = policy == deletionPolicyDelete
	return r, nil
}

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

// TemplateSpec builds template version documents. It is a VMSpec whose
// output is wrapped in a template version envelope.
type TemplateSpec struct {
	VMSpec

	envelope document.Document
}

// NewTemplateSpec returns a template builder with the same defaults as NewVMSpec.
func NewTemplateSpec(cpuCores int64, memory v1beta1.Size, opts ...VMOption) *TemplateSpec {
	return &TemplateSpec{VMSpec: *NewVMSpec(cpuCores, memory, opts...)}
}

// ToDocument renders a version of the template called name. The embedded
// machine carries no identity: its name, namespace, description and
// hostname are dropped.
func (t *TemplateSpec) ToDocument(name, namespace string) (document.Document, error) {
	vm, err := t.VMSpec.ToDocument(name, namespace, "")
	if err != nil {
		return nil, err
	}

	metadata, _ := document.Map(vm, "metadata")
	delete(metadata, "name")
	delete(metadata, "namespace")
	document.Remove(metadata, "annotations", v1beta1.AnnotationDescription)
	spec, _ := document.Map(vm, "spec")
	document.Remove(spec, "template", "spec", "hostname")

	computed := document.Document{
		"type": v1beta1.TemplateVersionType,
		"metadata": map[string]interface{}{
			"generateName": name + "-",
			"labels": map[string]interface{}{
				v1beta1.LabelTemplateID: name,
			},
			"namespace": namespace,
		},
		"spec": map[string]interface{}{
			"templateId": namespace + "/" + name,
			"vm": map[string]interface{}{
				"metadata": metadata,
				"spec":     spec,
			},
		},
	}
	if t.envelope == nil {
		return computed, nil
	}
	return document.Merge(t.envelope, computed, "spec.vm"), nil
}

// TemplateSpecFromDocument rebuilds a template builder from a template
// version document, identified either by its kind or by its type.
func TemplateSpecFromDocument(doc document.Document) (*TemplateSpec, error) {
	kind, _ := document.String(doc, "kind")
	typ, _ := document.String(doc, "type")
	if kind != v1beta1.TemplateVersionKind && typ != v1beta1.TemplateVersionType {
		return nil, discriminatorError("kind", v1beta1.TemplateVersionKind, kind)
	}

	vm, err := requireMap(doc, "spec", "vm")
	if err != nil {
		return nil, err
	}
	vm = document.DeepCopy(vm)
	vm["type"] = v1beta1.VirtualMachineType
	if err := document.Set(vm, "", "spec", "template", "spec", "hostname"); err != nil {
		return nil, err
	}

	spec, err := VMSpecFromDocument(vm)
	if err != nil {
		return nil, err
	}
	return &TemplateSpec{
		VMSpec:   *spec,
		envelope: document.DeepCopy(doc),
	}, nil
}

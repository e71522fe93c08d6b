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

	"k8s.io/utils/ptr"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/document"
)

// VolumeSpec builds persistent volume claim documents.
type VolumeSpec struct {
	Size v1beta1.Size
	// StorageClass is the storage class name; nil selects the platform default.
	StorageClass *string
	Description  string
	Annotations  map[string]string
	AccessModes  []string

	base document.Document
}

// VolumeOption configures a VolumeSpec.
type VolumeOption func(*VolumeSpec)

// WithStorageClass sets the storage class of the volume.
func WithStorageClass(name string) VolumeOption {
	return func(v *VolumeSpec) {
		v.StorageClass = ptr.To(name)
	}
}

// WithVolumeDescription sets the description annotation of the volume.
func WithVolumeDescription(description string) VolumeOption {
	return func(v *VolumeSpec) {
		v.Description = description
	}
}

// WithAnnotations adds annotations to the volume.
func WithAnnotations(annotations map[string]string) VolumeOption {
	return func(v *VolumeSpec) {
		for k, val := range annotations {
			v.Annotations[k] = val
		}
	}
}

// WithAccessModes replaces the default access modes.
func WithAccessModes(modes ...string) VolumeOption {
	return func(v *VolumeSpec) {
		v.AccessModes = modes
	}
}

// NewVolumeSpec returns a volume builder of the given size.
func NewVolumeSpec(size v1beta1.Size, opts ...VolumeOption) *VolumeSpec {
	v := &VolumeSpec{
		Size:        size,
		Annotations: map[string]string{},
		AccessModes: []string{v1beta1.DefaultAccessMode},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VolumeMode is always Block.
func (v *VolumeSpec) VolumeMode() string {
	return v1beta1.VolumeModeBlock
}

// StorageClassForImage returns the storage class the platform creates for an
// image, given its "namespace/name" identifier.
func StorageClassForImage(imageID string) string {
	name := imageID
	if i := strings.LastIndex(imageID, "/"); i >= 0 {
		name = imageID[i+1:]
	}
	return v1beta1.StorageClassImagePrefix + name
}

// ToDocument renders the volume. A non-empty imageID marks the volume as
// backed by that image and, as a side effect, switches StorageClass to the
// class derived from the image.
func (v *VolumeSpec) ToDocument(name, namespace, imageID string) document.Document {
	annotations := document.FromStringMap(v.Annotations)
	if v.Description != "" {
		annotations[v1beta1.AnnotationDescription] = v.Description
	}
	if imageID != "" {
		annotations[v1beta1.AnnotationImageID] = imageID
		v.StorageClass = ptr.To(StorageClassForImage(imageID))
	}

	accessModes := v.AccessModes
	if len(accessModes) == 0 {
		accessModes = []string{v1beta1.DefaultAccessMode}
	}
	spec := map[string]interface{}{
		"accessModes": document.FromStrings(accessModes),
		"resources": map[string]interface{}{
			"requests": map[string]interface{}{
				"storage": v.Size.String(),
			},
		},
		"volumeMode": v1beta1.VolumeModeBlock,
	}
	storageClass := ptr.Deref(v.StorageClass, "")
	if storageClass != "" {
		spec["storageClassName"] = storageClass
	}

	computed := document.Document{
		"type": v1beta1.PersistentVolumeClaimType,
		"metadata": map[string]interface{}{
			"namespace":   namespace,
			"name":        name,
			"annotations": annotations,
		},
		"spec": spec,
	}
	if v.base == nil {
		return computed
	}

	out := document.Merge(v.base, computed, "metadata.annotations")
	if storageClass == "" {
		document.Remove(out, "spec", "storageClassName")
	}
	return out
}

// VolumeSpecFromDocument rebuilds a volume builder from a claim document.
// The document is kept as the base of later serializations.
func VolumeSpecFromDocument(doc document.Document) (*VolumeSpec, error) {
	size, err := requireString(doc, "spec", "resources", "requests", "storage")
	if err != nil {
		return nil, err
	}

	v := NewVolumeSpec(v1beta1.Literal(size))
	if sc, ok := document.String(doc, "spec", "storageClassName"); ok {
		v.StorageClass = ptr.To(sc)
	}
	if modes, ok := document.Slice(doc, "spec", "accessModes"); ok {
		v.AccessModes = document.ToStrings(modes)
	}
	if annotations, ok := document.Map(doc, "metadata", "annotations"); ok {
		v.Annotations = document.ToStringMap(annotations)
	}
	v.Description = v.Annotations[v1beta1.AnnotationDescription]
	delete(v.Annotations, v1beta1.AnnotationDescription)

	v.base = document.DeepCopy(doc)
	return v, nil
}

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

// ImageSourceType is how the platform obtains the image content.
type ImageSourceType string

const (
	ImageSourceDownload ImageSourceType = "download"
	ImageSourceUpload   ImageSourceType = "upload"
)

// ImageSpec builds machine image documents.
type ImageSpec struct {
	DisplayName string
	SourceType  ImageSourceType
	// URL is the download location, unused for uploads.
	URL         string
	Description string
	// StorageClassParameters tune the storage class created for the image.
	StorageClassParameters map[string]string

	base document.Document
}

// NewImageSpec returns a builder for an image downloaded from url, or
// uploaded by the caller when url is empty.
func NewImageSpec(displayName, url string) *ImageSpec {
	sourceType := ImageSourceDownload
	if url == "" {
		sourceType = ImageSourceUpload
	}
	return &ImageSpec{
		DisplayName: displayName,
		SourceType:  sourceType,
		URL:         url,
	}
}

// ImageID returns the identifier machines use to reference an image.
func ImageID(namespace, name string) string {
	return namespace + "/" + name
}

func (i *ImageSpec) ToDocument(name, namespace string) document.Document {
	spec := map[string]interface{}{
		"displayName": i.DisplayName,
		"sourceType":  string(i.SourceType),
	}
	if i.URL != "" {
		spec["url"] = i.URL
	}
	if len(i.StorageClassParameters) > 0 {
		spec["storageClassParameters"] = document.FromStringMap(i.StorageClassParameters)
	}

	computed := document.Document{
		"type": v1beta1.ImageType,
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
			"annotations": map[string]interface{}{
				v1beta1.AnnotationDescription: i.Description,
			},
		},
		"spec": spec,
	}
	if i.base == nil {
		return computed
	}
	return document.Merge(i.base, computed, "spec.storageClassParameters")
}

func ImageSpecFromDocument(doc document.Document) (*ImageSpec, error) {
	if err := checkType(doc, v1beta1.ImageType); err != nil {
		return nil, err
	}
	displayName, err := requireString(doc, "spec", "displayName")
	if err != nil {
		return nil, err
	}
	i := &ImageSpec{
		DisplayName: displayName,
		SourceType:  ImageSourceType(stringOr(doc, string(ImageSourceDownload), "spec", "sourceType")),
		URL:         stringOr(doc, "", "spec", "url"),
		Description: stringOr(doc, "", "metadata", "annotations", v1beta1.AnnotationDescription),
		base:        document.DeepCopy(doc),
	}
	if params, ok := document.Map(doc, "spec", "storageClassParameters"); ok {
		i.StorageClassParameters = document.ToStringMap(params)
	}
	return i, nil
}

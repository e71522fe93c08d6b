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
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/document"
)

// Sub-documents owned entirely by VMSpec. Merging them key by key would let
// switched-off features survive from the base document.
var vmReplacedPaths = []string{
	"metadata.annotations",
	"metadata.labels",
	"spec.template.spec.domain.cpu",
	"spec.template.spec.domain.machine",
	"spec.template.spec.domain.features",
	"spec.template.spec.domain.firmware",
}

// Validate checks the builder for values the platform would reject.
func (v *VMSpec) Validate() error {
	var errs []error
	if v.CPUCores < 1 {
		errs = append(errs, fmt.Errorf("cpu cores must be at least 1 but was %d", v.CPUCores))
	}
	if v.CPUSockets < 1 {
		errs = append(errs, fmt.Errorf("cpu sockets must be at least 1 but was %d", v.CPUSockets))
	}
	if v.CPUThreads < 1 {
		errs = append(errs, fmt.Errorf("cpu threads must be at least 1 but was %d", v.CPUThreads))
	}
	if v.Memory.IsZero() {
		errs = append(errs, fmt.Errorf("memory must be set"))
	} else if _, err := v.Memory.Quantity(); err != nil {
		errs = append(errs, err)
	}
	if err := v.RunStrategy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if v.SecureBoot() && !v.EFIBoot() {
		errs = append(errs, fmt.Errorf("secure boot requires EFI boot"))
	}

	names := sets.New[string]()
	for _, e := range v.Volumes {
		name := e.Name()
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("disk name must be set"))
		case name == v1beta1.CloudInitDiskName:
			errs = append(errs, fmt.Errorf("disk name %s is reserved", name))
		case names.Has(name):
			errs = append(errs, fmt.Errorf("disk %s is attached more than once", name))
		}
		names.Insert(name)
	}
	return utilerrors.NewAggregate(errs)
}

// ToDocument renders the machine called name in namespace. The hostname
// falls back to the Hostname field, then to name. Boot order follows the
// order of Volumes.
func (v *VMSpec) ToDocument(name, namespace, hostname string) (document.Document, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid virtual machine %s/%s: %w", namespace, name, err)
	}

	claims := make([]interface{}, 0)
	disks := make([]interface{}, 0, len(v.Volumes)+1)
	volumes := make([]interface{}, 0, len(v.Volumes)+1)
	for i, e := range v.Volumes {
		disk := document.DeepCopy(e.Disk)
		disk["bootOrder"] = int64(i + 1)
		volume := document.DeepCopy(e.Volume)
		if e.Claim != nil {
			claimName := e.ClaimName()
			if claimName == "" {
				claimName = fmt.Sprintf("%s-%s", name, e.Name())
				if err := document.Set(volume, claimName, "persistentVolumeClaim", "claimName"); err != nil {
					return nil, err
				}
			}
			claims = append(claims, claimTemplate(e.Claim, claimName, namespace, e.ImageID))
		}
		disks = append(disks, disk)
		volumes = append(volumes, volume)
	}
	disks = append(disks, map[string]interface{}{
		"name": v1beta1.CloudInitDiskName,
		"disk": map[string]interface{}{
			"bus": v1beta1.BusVirtio,
		},
	})
	volumes = append(volumes, v.cloudInitVolume())

	claimsJSON, err := utiljson.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to encode volume claim templates: %w", err)
	}

	interfaces := make([]interface{}, 0, len(v.Networks))
	networks := make([]interface{}, 0, len(v.Networks))
	for _, n := range v.Networks {
		interfaces = append(interfaces, document.DeepCopy(n.Interface))
		networks = append(networks, document.DeepCopy(n.Network))
	}

	if hostname == "" {
		hostname = v.Hostname
	}
	if hostname == "" {
		hostname = name
	}

	annotations := document.FromStringMap(v.Annotations)
	annotations[v1beta1.AnnotationVolumeClaimTemplates] = string(claimsJSON)
	annotations[v1beta1.AnnotationDescription] = v.Description
	if v.ReservedMemory != "" {
		annotations[v1beta1.AnnotationReservedMemory] = formatReservedMemory(v.ReservedMemory)
	}
	labels := document.FromStringMap(v.Labels)
	labels[v1beta1.LabelOS] = v.OSType
	labels[v1beta1.LabelCreator] = v1beta1.CreatorHarvester

	features := document.DeepCopy(v.features)
	features["acpi"] = map[string]interface{}{
		"enabled": v.ACPI,
	}

	devices := map[string]interface{}{
		"interfaces": interfaces,
		"disks":      disks,
	}
	if v.USBTablet {
		devices["inputs"] = []interface{}{
			map[string]interface{}{
				"bus":  v1beta1.BusUSB,
				"name": "tablet",
				"type": "tablet",
			},
		}
	}

	computed := document.Document{
		"type": v1beta1.VirtualMachineType,
		"metadata": map[string]interface{}{
			"namespace":   namespace,
			"name":        name,
			"annotations": annotations,
			"labels":      labels,
		},
		"spec": map[string]interface{}{
			"runStrategy": string(v.RunStrategy),
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{
					"labels": map[string]interface{}{
						v1beta1.LabelVMName: name,
					},
				},
				"spec": map[string]interface{}{
					"evictionStrategy": v.EvictionStrategy,
					"hostname":         hostname,
					"networks":         networks,
					"volumes":          volumes,
					"domain": map[string]interface{}{
						"machine": map[string]interface{}{
							"type": v.MachineType,
						},
						"cpu": map[string]interface{}{
							"cores":   v.CPUCores,
							"sockets": v.CPUSockets,
							"threads": v.CPUThreads,
						},
						"resources": map[string]interface{}{
							"limits": map[string]interface{}{
								"cpu":    v.CPUCores,
								"memory": v.Memory.String(),
							},
						},
						"features": features,
						"firmware": document.DeepCopy(v.firmware),
						"devices":  devices,
					},
				},
			},
		},
	}
	if v.base == nil {
		return computed, nil
	}

	out := document.Merge(v.base, computed, vmReplacedPaths...)
	if !v.USBTablet {
		document.Remove(out, "spec", "template", "spec", "domain", "devices", "inputs")
	}
	return out, nil
}

func (v *VMSpec) cloudInitVolume() map[string]interface{} {
	cloudInit := map[string]interface{}{
		"userData": v.UserData,
	}
	if v.NetworkData != "" {
		cloudInit["networkData"] = v.NetworkData
	}
	return map[string]interface{}{
		"name":             v1beta1.CloudInitDiskName,
		"cloudInitNoCloud": cloudInit,
	}
}

// claimTemplate renders a claim the way the platform expects it inside the
// volume claim templates annotation: no type tag and no namespace.
func claimTemplate(claim *VolumeSpec, claimName, namespace, imageID string) map[string]interface{} {
	doc := claim.ToDocument(claimName, namespace, imageID)
	delete(doc, "type")
	document.Remove(doc, "metadata", "namespace")
	return doc
}

func formatReservedMemory(reserved string) string {
	if _, err := strconv.ParseInt(reserved, 10, 64); err == nil {
		return reserved + v1beta1.DefaultReservedMemoryUnit
	}
	return reserved
}

func parseClaimTemplates(annotation string) (map[string]document.Document, error) {
	claims := map[string]document.Document{}
	if annotation == "" {
		return claims, nil
	}
	decoded, err := document.DecodeJSONValue([]byte(annotation))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s annotation", v1beta1.AnnotationVolumeClaimTemplates)
	}
	list, ok := decoded.([]interface{})
	if !ok {
		return nil, errors.Errorf("%s annotation is not a list", v1beta1.AnnotationVolumeClaimTemplates)
	}
	for _, item := range list {
		claim, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := document.String(claim, "metadata", "name"); ok {
			claims[name] = claim
		}
	}
	return claims, nil
}

func int64Or(doc document.Document, def int64, path ...string) int64 {
	if n, ok := document.Int64(doc, path...); ok {
		return n
	}
	return def
}

// VMSpecFromDocument rebuilds a machine builder from a virtual machine
// document. The document, minus its resource version, is kept as the base of
// later serializations.
func VMSpecFromDocument(doc document.Document) (*VMSpec, error) {
	if err := checkType(doc, v1beta1.VirtualMachineType); err != nil {
		return nil, err
	}
	data := document.DeepCopy(doc)
	document.Remove(data, "metadata", "resourceVersion")

	templateSpec, err := requireMap(data, "spec", "template", "spec")
	if err != nil {
		return nil, err
	}
	domain, err := requireMap(templateSpec, "domain")
	if err != nil {
		return nil, err
	}
	cores, err := requireInt64(domain, "cpu", "cores")
	if err != nil {
		return nil, err
	}
	memory, err := requireString(domain, "resources", "limits", "memory")
	if err != nil {
		return nil, err
	}

	v := &VMSpec{
		CPUCores:         cores,
		CPUSockets:       int64Or(domain, 1, "cpu", "sockets"),
		CPUThreads:       int64Or(domain, 1, "cpu", "threads"),
		Memory:           v1beta1.Literal(memory),
		RunStrategy:      v1beta1.RunStrategy(stringOr(data, string(v1beta1.DefaultRunStrategy), "spec", "runStrategy")),
		EvictionStrategy: stringOr(templateSpec, "", "evictionStrategy"),
		Hostname:         stringOr(templateSpec, "", "hostname"),
		MachineType:      stringOr(domain, "", "machine", "type"),
		features:         document.Document{},
		firmware:         document.Document{},
	}

	if features, ok := document.Map(domain, "features"); ok {
		v.features = document.DeepCopy(features)
	}
	v.ACPI, _ = document.Bool(v.features, "acpi", "enabled")
	delete(v.features, "acpi")
	if firmware, ok := document.Map(domain, "firmware"); ok {
		v.firmware = document.DeepCopy(firmware)
	}

	inputs, _ := document.Slice(domain, "devices", "inputs")
	for _, in := range inputs {
		if input, ok := in.(map[string]interface{}); ok && input["type"] == "tablet" {
			v.USBTablet = true
		}
	}

	annotations, _ := document.Map(data, "metadata", "annotations")
	v.Annotations = document.ToStringMap(annotations)
	claimsAnnotation := v.Annotations[v1beta1.AnnotationVolumeClaimTemplates]
	v.Description = v.Annotations[v1beta1.AnnotationDescription]
	v.ReservedMemory = v.Annotations[v1beta1.AnnotationReservedMemory]
	delete(v.Annotations, v1beta1.AnnotationVolumeClaimTemplates)
	delete(v.Annotations, v1beta1.AnnotationDescription)
	delete(v.Annotations, v1beta1.AnnotationReservedMemory)

	labels, _ := document.Map(data, "metadata", "labels")
	v.Labels = document.ToStringMap(labels)
	v.OSType = v.Labels[v1beta1.LabelOS]
	delete(v.Labels, v1beta1.LabelOS)
	delete(v.Labels, v1beta1.LabelCreator)

	claims, err := parseClaimTemplates(claimsAnnotation)
	if err != nil {
		return nil, err
	}
	if err := v.volumesFromDocument(domain, templateSpec, claims); err != nil {
		return nil, err
	}
	if err := v.networksFromDocument(domain, templateSpec); err != nil {
		return nil, err
	}

	v.base = data
	return v, nil
}

// volumesFromDocument pairs disks with volumes by position. The last pair is
// the cloud-init disk.
func (v *VMSpec) volumesFromDocument(domain, templateSpec document.Document, claims map[string]document.Document) error {
	disks, _ := document.Slice(domain, "devices", "disks")
	volumes, _ := document.Slice(templateSpec, "volumes")
	if len(disks) != len(volumes) {
		return errors.Errorf("machine has %d disks but %d volumes", len(disks), len(volumes))
	}
	if len(disks) == 0 {
		return nil
	}

	last := len(volumes) - 1
	cloudInit, ok := volumes[last].(map[string]interface{})
	if !ok {
		return fieldNotFound("spec", "template", "spec", "volumes", strconv.Itoa(last))
	}
	v.UserData = stringOr(cloudInit, "", "cloudInitNoCloud", "userData")
	v.NetworkData = stringOr(cloudInit, "", "cloudInitNoCloud", "networkData")

	for i := 0; i < last; i++ {
		disk, ok := disks[i].(map[string]interface{})
		if !ok {
			return fieldNotFound("spec", "template", "spec", "domain", "devices", "disks", strconv.Itoa(i))
		}
		volume, ok := volumes[i].(map[string]interface{})
		if !ok {
			return fieldNotFound("spec", "template", "spec", "volumes", strconv.Itoa(i))
		}

		entry := VolumeEntry{
			Disk:   document.DeepCopy(disk),
			Volume: document.DeepCopy(volume),
		}
		delete(entry.Disk, "bootOrder")
		if claim, ok := claims[entry.ClaimName()]; ok && entry.ClaimName() != "" {
			spec, err := VolumeSpecFromDocument(claim)
			if err != nil {
				return errors.Wrapf(err, "claim template %s", entry.ClaimName())
			}
			entry.Claim = spec
			entry.ImageID = spec.Annotations[v1beta1.AnnotationImageID]
		}
		v.Volumes = append(v.Volumes, entry)
	}
	return nil
}

// networksFromDocument pairs interfaces with networks by position.
func (v *VMSpec) networksFromDocument(domain, templateSpec document.Document) error {
	interfaces, _ := document.Slice(domain, "devices", "interfaces")
	networks, _ := document.Slice(templateSpec, "networks")
	if len(interfaces) != len(networks) {
		return errors.Errorf("machine has %d interfaces but %d networks", len(interfaces), len(networks))
	}
	for i := range interfaces {
		iface, ok := interfaces[i].(map[string]interface{})
		if !ok {
			return fieldNotFound("spec", "template", "spec", "domain", "devices", "interfaces", strconv.Itoa(i))
		}
		network, ok := networks[i].(map[string]interface{})
		if !ok {
			return fieldNotFound("spec", "template", "spec", "networks", strconv.Itoa(i))
		}
		v.Networks = append(v.Networks, NetworkEntry{
			Interface: document.DeepCopy(iface),
			Network:   document.DeepCopy(network),
		})
	}
	return nil
}

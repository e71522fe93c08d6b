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

package v1beta1

const (
	// VirtualMachineType is the discriminator of virtual machine documents.
	VirtualMachineType = "kubevirt.io.virtualmachine"
	// PersistentVolumeClaimType is the discriminator of volume documents.
	PersistentVolumeClaimType = "persistentvolumeclaim"
	// TemplateVersionType is the discriminator of template version documents.
	TemplateVersionType = "harvesterhci.io.virtualmachinetemplateversion"
	// TemplateVersionKind is the kind reported by the platform for template versions.
	TemplateVersionKind = "VirtualMachineTemplateVersion"
	// RestoreType is the discriminator of restore action documents.
	RestoreType = "harvesterhci.io.virtualmachinerestore"
	// BackupType is the discriminator of backup and snapshot documents.
	BackupType = "harvesterhci.io.virtualmachinebackup"
	// ImageType is the discriminator of machine image documents.
	ImageType = "harvesterhci.io.virtualmachineimage"
	// NetworkAttachmentType is the discriminator of VLAN network documents.
	NetworkAttachmentType = "k8s.cni.cncf.io.network-attachment-definition"
	// AddonType is the discriminator of addon documents.
	AddonType = "harvesterhci.io.addon"
	// SettingType is the discriminator of setting documents.
	SettingType = "harvesterhci.io.setting"
)

// Annotation keys.
const (
	AnnotationVolumeClaimTemplates = "harvesterhci.io/volumeClaimTemplates"
	AnnotationDescription          = "field.cattle.io/description"
	AnnotationImageID              = "harvesterhci.io/imageId"
	AnnotationReservedMemory       = "harvesterhci.io/reservedMemory"
)

// Label keys.
const (
	LabelOS             = "harvesterhci.io/os"
	LabelCreator        = "harvesterhci.io/creator"
	LabelVMName         = "harvesterhci.io/vmName"
	LabelTemplateID     = "template.harvesterhci.io/templateID"
	LabelClusterNetwork = "network.harvesterhci.io/clusternetwork"
	LabelNetworkType    = "network.harvesterhci.io/type"
	LabelVLAN           = "network.harvesterhci.io/vlan"
)

const (
	// CreatorHarvester is the creator label value of machines built by this layer.
	CreatorHarvester = "harvester"

	// MgmtNetwork is the network identity selecting the pod (management) network.
	MgmtNetwork = "pod"
	// DefaultMgmtNetworkName is the interface name used when the management network is synthesized.
	DefaultMgmtNetworkName = "default"

	// CloudInitDiskName is the name of the disk/volume pair carrying cloud-init data.
	CloudInitDiskName = "cloudinitdisk"

	// StorageClassImagePrefix prefixes storage classes derived from a machine image.
	StorageClassImagePrefix = "longhorn-"

	// DefaultAccessMode is the access mode used by volumes unless told otherwise.
	DefaultAccessMode = "ReadWriteMany"
	// VolumeModeBlock is the only volume mode produced by this layer.
	VolumeModeBlock = "Block"

	// KubevirtAPIGroup is the api group of restore and backup targets.
	KubevirtAPIGroup = "kubevirt.io"
	// VirtualMachineKind is the kind of restore and backup targets.
	VirtualMachineKind = "VirtualMachine"

	// DefaultEvictionStrategy is the eviction strategy of new machines.
	DefaultEvictionStrategy = "LiveMigrate"
	// DefaultOSType is the os label value of new machines.
	DefaultOSType = "linux"
	// DefaultReservedMemoryUnit is appended to reserved memory given as a bare number.
	DefaultReservedMemoryUnit = "Mi"
)

// Disk buses and device types.
const (
	BusVirtio = "virtio"
	BusSATA   = "sata"
	BusSCSI   = "scsi"
	BusUSB    = "usb"

	DiskTypeDisk  = "disk"
	DiskTypeCDROM = "cdrom"
)

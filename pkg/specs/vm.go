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
	"github.com/hcitest/hci-e2e/pkg/cloudinit"
	"github.com/hcitest/hci-e2e/pkg/document"
)

// defaultUserData is the cloud-config every new machine starts from.
const defaultUserData = cloudinit.Header + "\npackage_update: true"

// VolumeEntry is one disk attached to a machine: the disk device, the volume
// backing it, and for claim-backed disks the claim to provision.
type VolumeEntry struct {
	// Claim is nil unless the platform must provision a new claim for the disk.
	Claim *VolumeSpec
	// ImageID is the "namespace/name" image the claim is created from, if any.
	ImageID string
	Disk    document.Document
	Volume  document.Document
}

// Name returns the logical disk name.
func (e VolumeEntry) Name() string {
	name, _ := document.String(e.Disk, "name")
	return name
}

// ClaimName returns the claim referenced by the volume, empty when the
// volume is not claim backed or the name is resolved at serialization.
func (e VolumeEntry) ClaimName() string {
	name, _ := document.String(e.Volume, "persistentVolumeClaim", "claimName")
	return name
}

// NetworkEntry is one interface of a machine and the network it attaches to.
type NetworkEntry struct {
	Interface document.Document
	Network   document.Document
}

// Name returns the interface name.
func (e NetworkEntry) Name() string {
	name, _ := document.String(e.Interface, "name")
	return name
}

// IsPodNetwork reports whether the entry attaches to the management network.
func (e NetworkEntry) IsPodNetwork() bool {
	_, ok := e.Network["pod"]
	return ok
}

// VMSpec builds virtual machine documents.
type VMSpec struct {
	CPUCores   int64
	CPUSockets int64
	CPUThreads int64
	Memory     v1beta1.Size

	RunStrategy      v1beta1.RunStrategy
	EvictionStrategy string
	Hostname         string
	MachineType      string
	USBTablet        bool
	ACPI             bool

	UserData    string
	NetworkData string

	Volumes  []VolumeEntry
	Networks []NetworkEntry

	Description string
	// ReservedMemory is a quantity; a bare number is taken as mebibytes.
	ReservedMemory string
	OSType         string

	// Annotations and Labels are carried on the machine in addition to the
	// ones this builder manages.
	Annotations map[string]string
	Labels      map[string]string

	features document.Document
	firmware document.Document
	base     document.Document
}

type vmOptions struct {
	description    string
	reservedMemory string
	osType         string
	mgmtNetwork    bool
	guestAgent     bool
}

// VMOption configures a new VMSpec.
type VMOption func(*vmOptions)

// WithDescription sets the machine description.
func WithDescription(description string) VMOption {
	return func(o *vmOptions) {
		o.description = description
	}
}

// WithReservedMemory sets the memory reserved for the hypervisor.
func WithReservedMemory(reserved string) VMOption {
	return func(o *vmOptions) {
		o.reservedMemory = reserved
	}
}

// WithOSType sets the os label of the machine.
func WithOSType(osType string) VMOption {
	return func(o *vmOptions) {
		o.osType = osType
	}
}

// WithMgmtNetwork controls whether the machine starts attached to the management network.
func WithMgmtNetwork(enabled bool) VMOption {
	return func(o *vmOptions) {
		o.mgmtNetwork = enabled
	}
}

// WithGuestAgent controls whether the guest agent is installed by cloud-init.
func WithGuestAgent(enabled bool) VMOption {
	return func(o *vmOptions) {
		o.guestAgent = enabled
	}
}

// NewVMSpec returns a machine builder with cpuCores cores and the given memory.
func NewVMSpec(cpuCores int64, memory v1beta1.Size, opts ...VMOption) *VMSpec {
	o := &vmOptions{
		osType:      v1beta1.DefaultOSType,
		mgmtNetwork: true,
		guestAgent:  true,
	}
	for _, opt := range opts {
		opt(o)
	}

	v := &VMSpec{
		CPUCores:         cpuCores,
		CPUSockets:       1,
		CPUThreads:       1,
		Memory:           memory,
		RunStrategy:      v1beta1.DefaultRunStrategy,
		EvictionStrategy: v1beta1.DefaultEvictionStrategy,
		USBTablet:        true,
		ACPI:             true,
		UserData:         defaultUserData,
		Description:      o.description,
		ReservedMemory:   o.reservedMemory,
		OSType:           o.osType,
		Annotations:      map[string]string{},
		Labels:           map[string]string{},
		features:         document.Document{},
		firmware:         document.Document{},
	}
	v.SetMgmtNetwork(o.mgmtNetwork)
	// the default user data always parses
	_ = v.SetGuestAgent(o.guestAgent)
	return v
}

type diskOptions struct {
	bus          string
	diskType     string
	storageClass *string
}

// DiskOption configures a disk added to a VMSpec.
type DiskOption func(*diskOptions)

// WithBus sets the bus the disk is attached to.
func WithBus(bus string) DiskOption {
	return func(o *diskOptions) {
		o.bus = bus
	}
}

// WithDiskType sets the device type of the disk (disk or cdrom).
func WithDiskType(diskType string) DiskOption {
	return func(o *diskOptions) {
		o.diskType = diskType
	}
}

// WithDiskStorageClass sets the storage class of a new blank volume.
func WithDiskStorageClass(name string) DiskOption {
	return func(o *diskOptions) {
		o.storageClass = &name
	}
}

func newDiskOptions(defaultBus, defaultType string, opts []DiskOption) *diskOptions {
	o := &diskOptions{bus: defaultBus, diskType: defaultType}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func diskDocument(name string, o *diskOptions) document.Document {
	return document.Document{
		"name": name,
		o.diskType: map[string]interface{}{
			"bus": o.bus,
		},
	}
}

func claimVolumeDocument(name, claimName string) document.Document {
	return document.Document{
		"name": name,
		"persistentVolumeClaim": map[string]interface{}{
			"claimName": claimName,
		},
	}
}

// putVolume appends e, or replaces the entry already using the same disk name.
func (v *VMSpec) putVolume(e VolumeEntry) {
	for i := range v.Volumes {
		if v.Volumes[i].Name() == e.Name() {
			v.Volumes[i] = e
			return
		}
	}
	v.Volumes = append(v.Volumes, e)
}

// AddImage attaches a new disk cloned from the image imageID ("namespace/name").
func (v *VMSpec) AddImage(name, imageID string, size v1beta1.Size, opts ...DiskOption) {
	o := newDiskOptions(v1beta1.BusVirtio, v1beta1.DiskTypeDisk, opts)
	v.putVolume(VolumeEntry{
		Claim:   NewVolumeSpec(size, WithStorageClass(StorageClassForImage(imageID))),
		ImageID: imageID,
		Disk:    diskDocument(name, o),
		Volume:  claimVolumeDocument(name, ""),
	})
}

// AddVolume attaches a new blank disk.
func (v *VMSpec) AddVolume(name string, size v1beta1.Size, opts ...DiskOption) {
	o := newDiskOptions(v1beta1.BusVirtio, v1beta1.DiskTypeDisk, opts)
	claim := NewVolumeSpec(size)
	claim.StorageClass = o.storageClass
	v.putVolume(VolumeEntry{
		Claim:  claim,
		Disk:   diskDocument(name, o),
		Volume: claimVolumeDocument(name, ""),
	})
}

// AddExistingVolume attaches the existing claim volumeName.
func (v *VMSpec) AddExistingVolume(name, volumeName string, opts ...DiskOption) {
	o := newDiskOptions(v1beta1.BusVirtio, v1beta1.DiskTypeDisk, opts)
	v.putVolume(VolumeEntry{
		Disk:   diskDocument(name, o),
		Volume: claimVolumeDocument(name, volumeName),
	})
}

// AddContainer attaches an ephemeral disk backed by a container image.
func (v *VMSpec) AddContainer(name, image string, opts ...DiskOption) {
	o := newDiskOptions(v1beta1.BusVirtio, v1beta1.DiskTypeDisk, opts)
	v.putVolume(VolumeEntry{
		Disk: diskDocument(name, o),
		Volume: document.Document{
			"name": name,
			"containerDisk": map[string]interface{}{
				"image": image,
			},
		},
	})
}

// AddCDROM attaches a CD-ROM cloned from the image imageID.
func (v *VMSpec) AddCDROM(name, imageID string, size v1beta1.Size, opts ...DiskOption) {
	o := newDiskOptions(v1beta1.BusSATA, v1beta1.DiskTypeCDROM, opts)
	v.putVolume(VolumeEntry{
		Claim:   NewVolumeSpec(size, WithStorageClass(StorageClassForImage(imageID))),
		ImageID: imageID,
		Disk:    diskDocument(name, o),
		Volume:  claimVolumeDocument(name, ""),
	})
}

// RemoveVolume detaches the disk called name. It reports whether a disk was removed.
func (v *VMSpec) RemoveVolume(name string) bool {
	for i := range v.Volumes {
		if v.Volumes[i].Name() == name {
			v.Volumes = append(v.Volumes[:i], v.Volumes[i+1:]...)
			return true
		}
	}
	return false
}

type networkOptions struct {
	model      string
	macAddress string
}

// NetworkOption configures a network added to a VMSpec.
type NetworkOption func(*networkOptions)

// WithModel sets the interface model.
func WithModel(model string) NetworkOption {
	return func(o *networkOptions) {
		o.model = model
	}
}

// WithMACAddress pins the interface MAC address.
func WithMACAddress(mac string) NetworkOption {
	return func(o *networkOptions) {
		o.macAddress = mac
	}
}

func newNetworkEntry(name, netUID string, opts []NetworkOption) NetworkEntry {
	o := &networkOptions{model: v1beta1.BusVirtio}
	for _, opt := range opts {
		opt(o)
	}

	iface := document.Document{
		"name":  name,
		"model": o.model,
	}
	if o.macAddress != "" {
		iface["macAddress"] = o.macAddress
	}
	network := document.Document{"name": name}

	if netUID == v1beta1.MgmtNetwork {
		iface["masquerade"] = map[string]interface{}{}
		network["pod"] = map[string]interface{}{}
	} else {
		iface["bridge"] = map[string]interface{}{}
		network["multus"] = map[string]interface{}{
			"networkName": netUID,
		}
	}
	return NetworkEntry{Interface: iface, Network: network}
}

// AddNetwork attaches an interface called name to the network netUID.
// v1beta1.MgmtNetwork selects the management network; any other value is the
// "namespace/name" of a VLAN network.
func (v *VMSpec) AddNetwork(name, netUID string, opts ...NetworkOption) {
	v.Networks = append(v.Networks, newNetworkEntry(name, netUID, opts))
}

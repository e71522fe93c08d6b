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

	"github.com/blang/semver/v4"

	"github.com/hcitest/hci-e2e/pkg/document"
)

const (
	BackupTargetSettingName   = "backup-target"
	StorageNetworkSettingName = "storage-network"
	OvercommitSettingName     = "overcommit-config"
	ServerVersionSettingName  = "server-version"
)

// BackupTargetType is the kind of store backups are written to.
type BackupTargetType string

const (
	BackupTargetNFS BackupTargetType = "nfs"
	BackupTargetS3  BackupTargetType = "s3"
)

// BackupTargetSetting configures where backups are stored.
type BackupTargetSetting struct {
	*SettingSpec

	Type     BackupTargetType
	Endpoint string

	// S3 only.
	BucketName      string
	BucketRegion    string
	AccessKeyID     string
	SecretAccessKey string
}

// NewNFSBackupTarget stores backups on the NFS share at endpoint
// ("nfs://host:/path").
func NewNFSBackupTarget(endpoint string) *BackupTargetSetting {
	return &BackupTargetSetting{
		SettingSpec: NewSettingSpec(BackupTargetSettingName, nil),
		Type:        BackupTargetNFS,
		Endpoint:    endpoint,
	}
}

// NewS3BackupTarget stores backups in an S3 bucket. An empty endpoint
// selects AWS.
func NewS3BackupTarget(endpoint, bucketName, bucketRegion, accessKeyID, secretAccessKey string) *BackupTargetSetting {
	return &BackupTargetSetting{
		SettingSpec:     NewSettingSpec(BackupTargetSettingName, nil),
		Type:            BackupTargetS3,
		Endpoint:        endpoint,
		BucketName:      bucketName,
		BucketRegion:    bucketRegion,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
	}
}

// NewDefaultBackupTarget clears the backup target.
func NewDefaultBackupTarget() *BackupTargetSetting {
	s := NewSettingSpec(BackupTargetSettingName, nil)
	s.UseDefault = true
	return &BackupTargetSetting{SettingSpec: s}
}

func newBackupTargetSetting(s *SettingSpec) *BackupTargetSetting {
	b := &BackupTargetSetting{SettingSpec: s}
	if m, ok := s.Value.(map[string]interface{}); ok {
		b.Type = BackupTargetType(stringOr(m, "", "type"))
		b.Endpoint = stringOr(m, "", "endpoint")
		b.BucketName = stringOr(m, "", "bucketName")
		b.BucketRegion = stringOr(m, "", "bucketRegion")
		b.AccessKeyID = stringOr(m, "", "accessKeyId")
		b.SecretAccessKey = stringOr(m, "", "secretAccessKey")
	}
	return b
}

func (b *BackupTargetSetting) ToDocument() (document.Document, error) {
	if !b.UseDefault {
		m := b.valueMap()
		m["type"] = string(b.Type)
		m["endpoint"] = b.Endpoint
		s3 := map[string]string{
			"bucketName":      b.BucketName,
			"bucketRegion":    b.BucketRegion,
			"accessKeyId":     b.AccessKeyID,
			"secretAccessKey": b.SecretAccessKey,
		}
		for key, value := range s3 {
			if b.Type == BackupTargetS3 {
				m[key] = value
			} else {
				delete(m, key)
			}
		}
	}
	return b.SettingSpec.ToDocument()
}

// StorageNetworkSetting dedicates a VLAN to storage replication traffic.
type StorageNetworkSetting struct {
	*SettingSpec

	VLAN           int64
	ClusterNetwork string
	// Range is the CIDR storage addresses are allocated from.
	Range   string
	Exclude []string
}

// NewStorageNetworkSetting enables the storage network.
func NewStorageNetworkSetting(vlan int64, clusterNetwork, cidr string, exclude ...string) *StorageNetworkSetting {
	return &StorageNetworkSetting{
		SettingSpec:    NewSettingSpec(StorageNetworkSettingName, nil),
		VLAN:           vlan,
		ClusterNetwork: clusterNetwork,
		Range:          cidr,
		Exclude:        exclude,
	}
}

func newStorageNetworkSetting(s *SettingSpec) *StorageNetworkSetting {
	n := &StorageNetworkSetting{SettingSpec: s}
	if m, ok := s.Value.(map[string]interface{}); ok {
		n.VLAN, _ = document.Int64(m, "vlan")
		n.ClusterNetwork = stringOr(m, "", "clusterNetwork")
		n.Range = stringOr(m, "", "range")
		n.Exclude = document.ToStrings(m["exclude"])
	}
	return n
}

// Enabled reports whether storage traffic uses a dedicated network.
func (n *StorageNetworkSetting) Enabled() bool {
	return !n.UseDefault
}

// Disable moves storage traffic back to the management network.
func (n *StorageNetworkSetting) Disable() {
	n.UseDefault = true
}

func (n *StorageNetworkSetting) Validate() error {
	if n.UseDefault {
		return nil
	}
	if n.VLAN < 1 || n.VLAN > 4094 {
		return fmt.Errorf("storage network vlan must be within 1-4094 but was %d", n.VLAN)
	}
	if n.ClusterNetwork == "" || n.Range == "" {
		return fmt.Errorf("storage network requires a cluster network and a range")
	}
	return nil
}

func (n *StorageNetworkSetting) ToDocument() (document.Document, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if !n.UseDefault {
		m := n.valueMap()
		m["vlan"] = n.VLAN
		m["clusterNetwork"] = n.ClusterNetwork
		m["range"] = n.Range
		if len(n.Exclude) > 0 {
			m["exclude"] = document.FromStrings(n.Exclude)
		} else {
			delete(m, "exclude")
		}
	}
	return n.SettingSpec.ToDocument()
}

// Overcommit ratios applied when no explicit value is set, in percent.
const (
	DefaultOvercommitCPU     = 1600
	DefaultOvercommitMemory  = 150
	DefaultOvercommitStorage = 200
)

// OvercommitSetting holds the resource overcommit ratios, in percent.
type OvercommitSetting struct {
	*SettingSpec

	CPU     int64
	Memory  int64
	Storage int64
}

// NewOvercommitSetting sets the overcommit ratios.
func NewOvercommitSetting(cpu, memory, storage int64) *OvercommitSetting {
	return &OvercommitSetting{
		SettingSpec: NewSettingSpec(OvercommitSettingName, nil),
		CPU:         cpu,
		Memory:      memory,
		Storage:     storage,
	}
}

func newOvercommitSetting(s *SettingSpec) *OvercommitSetting {
	o := &OvercommitSetting{
		SettingSpec: s,
		CPU:         DefaultOvercommitCPU,
		Memory:      DefaultOvercommitMemory,
		Storage:     DefaultOvercommitStorage,
	}
	if m, ok := s.Value.(map[string]interface{}); ok {
		o.CPU = int64Or(m, o.CPU, "cpu")
		o.Memory = int64Or(m, o.Memory, "memory")
		o.Storage = int64Or(m, o.Storage, "storage")
	}
	return o
}

func (o *OvercommitSetting) ToDocument() (document.Document, error) {
	if !o.UseDefault {
		m := o.valueMap()
		m["cpu"] = o.CPU
		m["memory"] = o.Memory
		m["storage"] = o.Storage
	}
	return o.SettingSpec.ToDocument()
}

// ServerVersionSetting reports the platform version. It is read only.
type ServerVersionSetting struct {
	*SettingSpec
}

func newServerVersionSetting(s *SettingSpec) *ServerVersionSetting {
	return &ServerVersionSetting{SettingSpec: s}
}

// Version parses the platform version, tolerating a leading "v".
func (v *ServerVersionSetting) Version() (semver.Version, error) {
	raw, _ := v.Value.(string)
	if raw == "" {
		raw = v.Default
	}
	return semver.ParseTolerant(raw)
}

// AtLeast reports whether the platform runs version or later.
func (v *ServerVersionSetting) AtLeast(version string) (bool, error) {
	current, err := v.Version()
	if err != nil {
		return false, err
	}
	want, err := semver.ParseTolerant(version)
	if err != nil {
		return false, err
	}
	return current.GTE(want), nil
}

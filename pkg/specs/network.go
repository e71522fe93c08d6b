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
	utiljson "k8s.io/apimachinery/pkg/util/json"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/document"
)

const (
	// DefaultClusterNetwork is the cluster network VLAN networks attach to by default.
	DefaultClusterNetwork = "mgmt"

	l2VlanNetworkType = "L2VlanNetwork"
	cniVersion        = "0.3.1"
)

// NetworkSpec builds VLAN network attachment documents.
type NetworkSpec struct {
	VLAN           int64
	ClusterNetwork string

	base document.Document
}

// NewNetworkSpec returns a builder for a network on vlan. An empty
// clusterNetwork selects DefaultClusterNetwork.
func NewNetworkSpec(vlan int64, clusterNetwork string) *NetworkSpec {
	if clusterNetwork == "" {
		clusterNetwork = DefaultClusterNetwork
	}
	return &NetworkSpec{VLAN: vlan, ClusterNetwork: clusterNetwork}
}

// NetworkID returns the identifier passed to VMSpec.AddNetwork.
func NetworkID(namespace, name string) string {
	return namespace + "/" + name
}

func (n *NetworkSpec) Validate() error {
	if n.VLAN < 1 || n.VLAN > 4094 {
		return fmt.Errorf("vlan id must be within 1-4094 but was %d", n.VLAN)
	}
	if n.ClusterNetwork == "" {
		return fmt.Errorf("cluster network must be set")
	}
	return nil
}

func (n *NetworkSpec) ToDocument(name, namespace string) (document.Document, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	config, err := utiljson.Marshal(map[string]interface{}{
		"cniVersion":  cniVersion,
		"name":        name,
		"type":        "bridge",
		"bridge":      n.ClusterNetwork + "-br",
		"promiscMode": true,
		"vlan":        n.VLAN,
		"ipam":        map[string]interface{}{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode network config: %w", err)
	}

	computed := document.Document{
		"type": v1beta1.NetworkAttachmentType,
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
			"labels": map[string]interface{}{
				v1beta1.LabelClusterNetwork: n.ClusterNetwork,
				v1beta1.LabelNetworkType:    l2VlanNetworkType,
				v1beta1.LabelVLAN:           strconv.FormatInt(n.VLAN, 10),
			},
		},
		"spec": map[string]interface{}{
			"config": string(config),
		},
	}
	if n.base == nil {
		return computed, nil
	}
	return document.Merge(n.base, computed), nil
}

func NetworkSpecFromDocument(doc document.Document) (*NetworkSpec, error) {
	if err := checkType(doc, v1beta1.NetworkAttachmentType); err != nil {
		return nil, err
	}
	raw, err := requireString(doc, "spec", "config")
	if err != nil {
		return nil, err
	}
	config, err := document.FromJSON([]byte(raw))
	if err != nil {
		return nil, errors.Wrap(err, "invalid network config")
	}
	vlan, err := requireInt64(config, "vlan")
	if err != nil {
		return nil, err
	}
	return &NetworkSpec{
		VLAN:           vlan,
		ClusterNetwork: stringOr(doc, DefaultClusterNetwork, "metadata", "labels", v1beta1.LabelClusterNetwork),
		base:           document.DeepCopy(doc),
	}, nil
}

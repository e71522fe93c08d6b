//go:build e2e
// +build e2e

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

package e2e

import (
	"os"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/resources"
	"github.com/hcitest/hci-e2e/pkg/specs"
)

const vlanVarKey = "HCI_E2E_VLAN"

var _ = Describe("VLAN networks", Label("network", "slow"), func() {
	const specName = "net"

	var (
		testHelper  testHelperInterface
		networkName string
		imageName   string
		vmName      string
		vlan        int64
	)

	BeforeEach(func() {
		raw := os.Getenv(vlanVarKey)
		if raw == "" {
			Skip(vlanVarKey + " is not set")
		}
		var err error
		vlan, err = strconv.ParseInt(raw, 10, 64)
		Expect(err).NotTo(HaveOccurred())

		testHelper = newTestHelper()
		networkName = testHelper.generateTestName(specName)
		imageName = testHelper.generateTestName(specName + "-image")
		vmName = testHelper.generateTestName(specName + "-vm")
	})

	AfterEach(func() {
		testHelper.deleteObject(ctx, resources.VirtualMachines, vmName)
		testHelper.deleteObject(ctx, resources.Images, imageName)
		testHelper.deleteObject(ctx, resources.Networks, networkName)
	})

	It("Should attach a machine to a VLAN network next to the management network", func() {
		By("Creating the network", func() {
			created, err := manager.CreateNetwork(ctx, networkName, namespace, specs.NewNetworkSpec(vlan, specs.DefaultClusterNetwork))
			Expect(err).NotTo(HaveOccurred())
			Expect(created.VLAN).To(Equal(vlan))
		})

		imageID := testHelper.createImageAndWait(ctx, imageName)
		vm := specs.NewVMSpec(1, v1beta1.Gigabytes(2))
		vm.AddImage("disk-0", imageID, v1beta1.Gigabytes(10))
		vm.AddNetwork("nic-1", specs.NetworkID(namespace, networkName))

		created := testHelper.createVMAndWait(ctx, vmName, vm)
		Expect(created.MgmtNetwork()).To(BeTrue())
		Expect(created.Networks).To(HaveLen(2))

		By("PASSED!")
	})
})

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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/resources"
	"github.com/hcitest/hci-e2e/pkg/specs"
	"github.com/hcitest/hci-e2e/test/e2e/log"
)

var _ = Describe("Virtual machines", Label("vm"), func() {
	const specName = "vm"

	var (
		testHelper testHelperInterface
		imageName  string
		imageID    string
		vmName     string
	)

	BeforeEach(func() {
		testHelper = newTestHelper()
		imageName = testHelper.generateTestName(specName + "-image")
		vmName = testHelper.generateTestName(specName)
		imageID = testHelper.createImageAndWait(ctx, imageName)
	})

	AfterEach(func() {
		testHelper.deleteObject(ctx, resources.VirtualMachines, vmName)
		testHelper.deleteObject(ctx, resources.Images, imageName)
	})

	It("Should create, stop and start a machine booted from an image", func() {
		vm := specs.NewVMSpec(2, v1beta1.Gigabytes(4), specs.WithDescription("e2e machine"))
		vm.AddImage("disk-0", imageID, v1beta1.Gigabytes(10))

		By("Creating the machine", func() {
			created := testHelper.createVMAndWait(ctx, vmName, vm)
			Expect(created.Description).To(Equal("e2e machine"))
			Expect(created.Volumes).To(HaveLen(1))
		})

		By("Stopping the machine", func() {
			Expect(manager.SetRunStrategy(ctx, namespace, vmName, v1beta1.RunStrategyHalted)).To(Succeed())
			testHelper.waitForVMStatus(ctx, vmName, vmStatusStopped)
		})

		By("Starting the machine", func() {
			Expect(manager.SetRunStrategy(ctx, namespace, vmName, v1beta1.RunStrategyRerunOnFailure)).To(Succeed())
			testHelper.waitForVMStatus(ctx, vmName, vmStatusRunning)
		})

		By("PASSED!")
	})

	It("Should keep the stored machine intact when adding a data disk", func() {
		vm := specs.NewVMSpec(1, v1beta1.Gigabytes(2), specs.WithGuestAgent(true))
		vm.AddImage("disk-0", imageID, v1beta1.Gigabytes(10))
		vm.RunStrategy = v1beta1.RunStrategyHalted
		testHelper.createVMAndWait(ctx, vmName, vm)

		log.Byf("Adding a data disk to %s", vmName)

		updated, err := manager.UpdateVM(ctx, namespace, vmName, func(v *specs.VMSpec) error {
			v.AddVolume("data-0", v1beta1.Gigabytes(5))
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Volumes).To(HaveLen(2))
		Expect(updated.GuestAgent()).To(BeTrue())

		fetched, err := manager.GetVM(ctx, namespace, vmName)
		Expect(err).NotTo(HaveOccurred())
		Expect(fetched.Volumes[1].Name()).To(Equal("data-0"))
		Expect(fetched.Volumes[1].ClaimName()).To(Equal(vmName + "-data-0"))

		By("PASSED!")
	})

	It("Should boot a machine with EFI and secure boot", func() {
		vm := specs.NewVMSpec(2, v1beta1.Gigabytes(4))
		vm.AddImage("disk-0", imageID, v1beta1.Gigabytes(10))
		vm.SetSecureBoot(true)

		created := testHelper.createVMAndWait(ctx, vmName, vm)
		Expect(created.EFIBoot()).To(BeTrue())
		Expect(created.SecureBoot()).To(BeTrue())

		By("PASSED!")
	})
})

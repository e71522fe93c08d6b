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
)

var _ = Describe("Backup and restore", Label("backup", "slow"), func() {
	const specName = "bkp"

	var (
		testHelper testHelperInterface
		imageName  string
		vmName     string
		backupName string
		created    []string
	)

	BeforeEach(func() {
		setting, err := manager.GetSetting(ctx, specs.BackupTargetSettingName)
		Expect(err).NotTo(HaveOccurred())
		target, ok := setting.(*specs.BackupTargetSetting)
		Expect(ok).To(BeTrue())
		if target.UseDefault || target.Endpoint == "" {
			Skip("no backup target is configured")
		}

		testHelper = newTestHelper()
		imageName = testHelper.generateTestName(specName + "-image")
		vmName = testHelper.generateTestName(specName + "-vm")
		backupName = testHelper.generateTestName(specName)
		created = nil

		imageID := testHelper.createImageAndWait(ctx, imageName)
		vm := specs.NewVMSpec(1, v1beta1.Gigabytes(2))
		vm.AddImage("disk-0", imageID, v1beta1.Gigabytes(10))
		testHelper.createVMAndWait(ctx, vmName, vm)
	})

	AfterEach(func() {
		if testHelper == nil {
			return
		}
		for _, name := range created {
			testHelper.deleteObject(ctx, resources.VirtualMachines, name)
		}
		testHelper.deleteObject(ctx, resources.Backups, backupName)
		testHelper.deleteObject(ctx, resources.VirtualMachines, vmName)
		testHelper.deleteObject(ctx, resources.Images, imageName)
	})

	It("Should restore a backup into a new machine", func() {
		By("Taking a backup", func() {
			backup, err := manager.Backup(ctx, backupName, namespace, vmName, specs.ForBackup())
			Expect(err).NotTo(HaveOccurred())
			Expect(backup.VMName).To(Equal(vmName))
			testHelper.waitForField(ctx, resources.Backups, backupName, true, "status", "readyToUse")
		})

		restoredVM := testHelper.generateTestName(specName + "-restored")
		By("Restoring it as a new machine", func() {
			restoreName, restore, err := manager.Restore(ctx, backupName, namespace, "", specs.RestoreForNew(restoredVM, ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(restore.NewVM()).To(BeTrue())
			testHelper.waitForField(ctx, resources.Restores, restoreName, true, "status", "complete")
			created = append(created, restoredVM)
		})

		By("PASSED!")
	})

	It("Should restore a snapshot over the existing machine", func() {
		By("Taking a snapshot", func() {
			_, err := manager.Backup(ctx, backupName, namespace, vmName, specs.ForSnapshot())
			Expect(err).NotTo(HaveOccurred())
			testHelper.waitForField(ctx, resources.Backups, backupName, true, "status", "readyToUse")
		})

		By("Stopping the machine", func() {
			Expect(manager.SetRunStrategy(ctx, namespace, vmName, v1beta1.RunStrategyHalted)).To(Succeed())
			testHelper.waitForVMStatus(ctx, vmName, vmStatusStopped)
		})

		By("Restoring over the machine", func() {
			restoreName, restore, err := manager.Restore(ctx, backupName, namespace, vmName, specs.RestoreForExisting(true))
			Expect(err).NotTo(HaveOccurred())
			Expect(restore.DeletionPolicy()).To(Equal("delete"))
			testHelper.waitForField(ctx, resources.Restores, restoreName, true, "status", "complete")
		})

		By("PASSED!")
	})
})

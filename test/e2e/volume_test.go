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

var _ = Describe("Volumes", Label("volume"), func() {
	const specName = "vol"

	var (
		testHelper testHelperInterface
		volumeName string
	)

	BeforeEach(func() {
		testHelper = newTestHelper()
		volumeName = testHelper.generateTestName(specName)
	})

	AfterEach(func() {
		testHelper.deleteObject(ctx, resources.Volumes, volumeName)
	})

	It("Should create and expand a blank volume", func() {
		created, err := manager.CreateVolume(ctx, volumeName, namespace, "", specs.NewVolumeSpec(v1beta1.Gigabytes(1), specs.WithVolumeDescription("e2e volume")))
		Expect(err).NotTo(HaveOccurred())
		Expect(created.VolumeMode()).To(Equal(v1beta1.VolumeModeBlock))

		resized, err := manager.ResizeVolume(ctx, namespace, volumeName, v1beta1.Gigabytes(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(resized.Size.String()).To(Equal("2Gi"))
		Expect(resized.Description).To(Equal("e2e volume"))

		By("PASSED!")
	})
})

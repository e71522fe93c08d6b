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
	"github.com/hcitest/hci-e2e/pkg/document"
	"github.com/hcitest/hci-e2e/pkg/resources"
	"github.com/hcitest/hci-e2e/pkg/specs"
)

var _ = Describe("Templates", Label("template"), func() {
	const specName = "tmpl"

	var (
		testHelper   testHelperInterface
		templateName string
		versionName  string
	)

	BeforeEach(func() {
		testHelper = newTestHelper()
		templateName = testHelper.generateTestName(specName)
	})

	AfterEach(func() {
		if versionName != "" {
			testHelper.deleteObject(ctx, resources.TemplateVersions, versionName)
		}
	})

	It("Should create a template version carrying the machine spec", func() {
		template := specs.NewTemplateSpec(2, v1beta1.Gigabytes(4), specs.WithOSType("linux"))
		template.AddVolume("disk-0", v1beta1.Gigabytes(10))

		var rebuilt *specs.TemplateSpec
		var err error
		versionName, rebuilt, err = manager.CreateTemplateVersion(ctx, templateName, namespace, template)
		Expect(err).NotTo(HaveOccurred())
		Expect(versionName).To(HavePrefix(templateName + "-"))
		Expect(rebuilt.CPUCores).To(Equal(int64(2)))
		Expect(rebuilt.OSType).To(Equal("linux"))

		_, stored, err := hciClient.Get(ctx, resources.TemplateVersions, namespace, versionName)
		Expect(err).NotTo(HaveOccurred())
		templateID, _ := document.String(stored, "spec", "templateId")
		Expect(templateID).To(Equal(namespace + "/" + templateName))

		By("PASSED!")
	})
})

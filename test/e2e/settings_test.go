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

	"github.com/hcitest/hci-e2e/pkg/specs"
	"github.com/hcitest/hci-e2e/test/e2e/log"
)

var _ = Describe("Settings", Label("settings"), func() {
	It("Should report a platform version", func() {
		setting, err := manager.GetSetting(ctx, specs.ServerVersionSettingName)
		Expect(err).NotTo(HaveOccurred())
		version, err := setting.(*specs.ServerVersionSetting).Version()
		Expect(err).NotTo(HaveOccurred())
		log.Infof("Platform version is %s", version)

		By("PASSED!")
	})

	It("Should update and restore the overcommit ratios", func() {
		setting, err := manager.GetSetting(ctx, specs.OvercommitSettingName)
		Expect(err).NotTo(HaveOccurred())
		original := setting.(*specs.OvercommitSetting)
		originalCPU, useDefault := original.CPU, original.UseDefault

		DeferCleanup(func() {
			_, err := manager.UpdateSetting(ctx, specs.OvercommitSettingName, func(s specs.Setting) error {
				o := s.(*specs.OvercommitSetting)
				o.CPU = originalCPU
				o.UseDefault = useDefault
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
		})

		updated, err := manager.UpdateSetting(ctx, specs.OvercommitSettingName, func(s specs.Setting) error {
			o := s.(*specs.OvercommitSetting)
			o.UseDefault = false
			o.CPU = originalCPU + 100
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.(*specs.OvercommitSetting).CPU).To(Equal(originalCPU + 100))

		By("PASSED!")
	})
})

var _ = Describe("Addons", Label("addon", "slow"), func() {
	It("Should change the metrics retention of the monitoring addon", func() {
		addon, err := manager.GetAddon(ctx, specs.MonitoringAddonNamespace, specs.MonitoringAddonName)
		Expect(err).NotTo(HaveOccurred())
		monitoring, ok := addon.(*specs.MonitoringAddon)
		Expect(ok).To(BeTrue())
		retention := monitoring.MetricsStore.Retention

		DeferCleanup(func() {
			_, err := manager.UpdateAddon(ctx, specs.MonitoringAddonNamespace, specs.MonitoringAddonName, func(a specs.Addon) error {
				a.(*specs.MonitoringAddon).MetricsStore.Retention = retention
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
		})

		updated, err := manager.UpdateAddon(ctx, specs.MonitoringAddonNamespace, specs.MonitoringAddonName, func(a specs.Addon) error {
			a.(*specs.MonitoringAddon).MetricsStore.Retention = "3d"
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.(*specs.MonitoringAddon).MetricsStore.Retention).To(Equal("3d"))

		By("PASSED!")
	})
})

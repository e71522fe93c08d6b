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
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/client"
	"github.com/hcitest/hci-e2e/pkg/resources"
	"github.com/hcitest/hci-e2e/pkg/specs"
	"github.com/hcitest/hci-e2e/test/e2e/log"
)

const (
	vmStatusRunning = "Running"
	vmStatusStopped = "Stopped"

	imageImportedCondition = "Imported"
)

type testHelperInterface interface {
	generateTestName(specName string) string
	createImageAndWait(ctx context.Context, name string) string
	createVMAndWait(ctx context.Context, name string, vm *specs.VMSpec) *specs.VMSpec
	waitForVMStatus(ctx context.Context, name, status string)
	waitForField(ctx context.Context, collection, name string, want interface{}, path ...string)
	deleteObject(ctx context.Context, collection, name string)
}

type testHelper struct {
	m *resources.Manager
	t client.Transport
}

func newTestHelper() testHelperInterface {
	return testHelper{m: manager, t: hciClient}
}

func (h testHelper) generateTestName(specName string) string {
	return fmt.Sprintf("%s-%s", specName, uuid.NewString()[:6])
}

// createImageAndWait downloads imageURL into a new image and returns its
// "namespace/name" identifier once the platform has imported it.
func (h testHelper) createImageAndWait(ctx context.Context, name string) string {
	_, err := h.m.CreateImage(ctx, name, namespace, specs.NewImageSpec(name, imageURL))
	Expect(err).NotTo(HaveOccurred())

	_, err = client.WaitFor(ctx, h.t, resources.Images, namespace, name, 0, waitTimeout, client.ConditionTrue(imageImportedCondition))
	Expect(err).NotTo(HaveOccurred(), "image %s was not imported", name)
	return specs.ImageID(namespace, name)
}

func (h testHelper) createVMAndWait(ctx context.Context, name string, vm *specs.VMSpec) *specs.VMSpec {
	created, err := h.m.CreateVM(ctx, name, namespace, vm)
	Expect(err).NotTo(HaveOccurred())
	if created.RunStrategy != v1beta1.RunStrategyHalted {
		h.waitForVMStatus(ctx, name, vmStatusRunning)
	}
	return created
}

func (h testHelper) waitForVMStatus(ctx context.Context, name, status string) {
	h.waitForField(ctx, resources.VirtualMachines, name, status, "status", "printableStatus")
}

func (h testHelper) waitForField(ctx context.Context, collection, name string, want interface{}, path ...string) {
	log.Debugf("Waiting for %s %s/%s to have %v at %v", collection, namespace, name, want, path)
	_, err := client.WaitFor(ctx, h.t, collection, namespace, name, 0, waitTimeout, client.FieldEquals(want, path...))
	Expect(err).NotTo(HaveOccurred())
}

// deleteObject deletes an object and waits until it is gone, unless
// e2e.skipCleanup is set.
func (h testHelper) deleteObject(ctx context.Context, collection, name string) {
	if skipCleanup {
		log.Infof("Skipping deletion of %s %s/%s", collection, namespace, name)
		return
	}
	_, _, err := h.t.Delete(ctx, collection, namespace, name)
	if client.IsNotFound(err) {
		return
	}
	Expect(err).NotTo(HaveOccurred())
	Expect(client.WaitForDeletion(ctx, h.t, collection, namespace, name, 0, waitTimeout)).To(Succeed())
}

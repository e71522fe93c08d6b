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
	"flag"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/hcitest/hci-e2e/pkg/client"
	"github.com/hcitest/hci-e2e/pkg/resources"
)

var (
	ctx context.Context

	// namespace is where every spec creates its objects.
	namespace string

	// imageURL is the cloud image downloaded by the image and machine specs.
	imageURL string

	// skipCleanup leaves the created objects in place for debugging.
	skipCleanup bool

	// waitTimeout bounds every wait for the platform to converge.
	waitTimeout time.Duration

	hciClient *client.Client
	manager   *resources.Manager
)

func init() {
	flag.StringVar(&namespace, "e2e.namespace", envOr("HCI_E2E_NAMESPACE", "default"), "the namespace the e2e objects are created in")
	flag.StringVar(&imageURL, "e2e.imageURL", os.Getenv("HCI_E2E_IMAGE_URL"), "the cloud image used for e2e machines")
	flag.BoolVar(&skipCleanup, "e2e.skipCleanup", false, "if true, the objects created by the specs are not deleted")
	flag.DurationVar(&waitTimeout, "e2e.waitTimeout", 10*time.Minute, "how long to wait for the platform to converge")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "hci-e2e suite")
}

var _ = SynchronizedBeforeSuite(func() []byte {
	Expect(imageURL).NotTo(BeEmpty(), "Invalid argument. e2e.imageURL can't be empty when running e2e tests")
	return nil
}, func([]byte) {
	ctrl.SetLogger(zap.New(zap.WriteTo(GinkgoWriter), zap.UseDevMode(true)))
	ctx = ctrl.LoggerInto(context.Background(), ctrl.Log.WithName("e2e"))

	var err error
	hciClient, err = initHCIClient()
	Expect(err).NotTo(HaveOccurred(), "failed to create the platform client")
	manager = resources.NewManager(hciClient)
})

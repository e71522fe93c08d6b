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
	"flag"
	"os"
	"strconv"

	"github.com/hcitest/hci-e2e/pkg/client"
	"github.com/hcitest/hci-e2e/pkg/resources"
	"github.com/hcitest/hci-e2e/pkg/specs"
)

var (
	hciEndpoint string
	hciInsecure string
)

func init() {
	flag.StringVar(&hciEndpoint, "e2e.hciEndpoint", os.Getenv("HCI_ENDPOINT"), "the platform API used for e2e tests")
	flag.StringVar(&hciInsecure, "e2e.hciInsecure", envOr("HCI_INSECURE", "false"), "Ignore certificate checks for e2e tests")
}

// initHCIClient builds a client from the HCI_* environment, letting the
// e2e flags override the endpoint, and checks that the platform answers.
func initHCIClient() (*client.Client, error) {
	cfg, err := client.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if hciEndpoint != "" {
		cfg.Endpoint = hciEndpoint
	}
	insecureBool, err := strconv.ParseBool(hciInsecure)
	if err != nil {
		return nil, err
	}
	cfg.Insecure = insecureBool

	hciClient, err := client.New(*cfg)
	if err != nil {
		return nil, err
	}
	if _, _, err := hciClient.Get(ctx, resources.Settings, "", specs.ServerVersionSettingName); err != nil {
		return nil, err
	}
	return hciClient, nil
}

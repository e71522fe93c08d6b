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

package v1beta1

import (
	"fmt"
)

// RunStrategy controls how the platform keeps a virtual machine running.
type RunStrategy string

const (
	RunStrategyRerunOnFailure RunStrategy = "RerunOnFailure"
	RunStrategyAlways         RunStrategy = "Always"
	RunStrategyHalted         RunStrategy = "Halted"
	RunStrategyManual         RunStrategy = "Manual"
)

// DefaultRunStrategy is the run strategy of new machines.
const DefaultRunStrategy = RunStrategyRerunOnFailure

var runStrategies = []RunStrategy{
	RunStrategyRerunOnFailure,
	RunStrategyAlways,
	RunStrategyHalted,
	RunStrategyManual,
}

// Validate returns an error if the run strategy is not one the platform accepts.
func (r RunStrategy) Validate() error {
	for _, s := range runStrategies {
		if r == s {
			return nil
		}
	}
	return fmt.Errorf("run strategy must be one of %v but was %q", runStrategies, string(r))
}

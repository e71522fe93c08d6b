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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize_String(t *testing.T) {
	tests := []struct {
		name     string
		size     Size
		expected string
	}{
		{
			name:     "gigabytes get the Gi suffix",
			size:     Gigabytes(10),
			expected: "10Gi",
		},
		{
			name:     "literal is used verbatim",
			size:     Literal("7Gi"),
			expected: "7Gi",
		},
		{
			name:     "literal in another unit is not converted",
			size:     Literal("512Mi"),
			expected: "512Mi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.size.String())
		})
	}
}

func TestSize_IsZero(t *testing.T) {
	assert.True(t, Size{}.IsZero())
	assert.True(t, Literal("").IsZero())
	assert.False(t, Gigabytes(1).IsZero())
	assert.False(t, Literal("1Gi").IsZero())
}

func TestSize_MiB(t *testing.T) {
	mib, err := Gigabytes(2).MiB()
	require.NoError(t, err)
	assert.Equal(t, int64(2048), mib)

	mib, err = Literal("7Gi").MiB()
	require.NoError(t, err)
	assert.Equal(t, int64(7168), mib)

	_, err = Literal("seven").MiB()
	assert.Error(t, err)
}

func TestRunStrategy_Validate(t *testing.T) {
	for _, s := range []RunStrategy{RunStrategyRerunOnFailure, RunStrategyAlways, RunStrategyHalted, RunStrategyManual} {
		assert.NoError(t, s.Validate(), "run strategy %s", s)
	}
	assert.Error(t, RunStrategy("Sometimes").Validate())
	assert.Error(t, RunStrategy("").Validate())
}

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

	"k8s.io/apimachinery/pkg/api/resource"
)

// Size is either a whole number of gibibytes or a pre-formatted quantity
// string. The two forms never convert into each other, so a size read from a
// document is written back exactly as it was read.
type Size struct {
	gigabytes int64
	literal   string
	isLiteral bool
}

// Gigabytes returns a size of n gibibytes, rendered as "<n>Gi".
func Gigabytes(n int64) Size {
	return Size{gigabytes: n}
}

// Literal returns a size rendered verbatim.
func Literal(s string) Size {
	return Size{literal: s, isLiteral: true}
}

// IsLiteral reports whether the size was given as a pre-formatted string.
func (s Size) IsLiteral() bool {
	return s.isLiteral
}

// IsZero reports whether the size is unset.
func (s Size) IsZero() bool {
	if s.isLiteral {
		return s.literal == ""
	}
	return s.gigabytes == 0
}

func (s Size) String() string {
	if s.isLiteral {
		return s.literal
	}
	return fmt.Sprintf("%dGi", s.gigabytes)
}

// Quantity parses the size as a resource quantity.
func (s Size) Quantity() (resource.Quantity, error) {
	q, err := resource.ParseQuantity(s.String())
	if err != nil {
		return resource.Quantity{}, fmt.Errorf("invalid size %q: %w", s.String(), err)
	}
	return q, nil
}

// MiB returns the size in mebibytes.
func (s Size) MiB() (int64, error) {
	q, err := s.Quantity()
	if err != nil {
		return 0, err
	}
	return q.Value() / (1024 * 1024), nil
}

// ParseSize wraps a size read from a document. The result is always a
// Literal so the unit written by the platform is preserved.
func ParseSize(s string) Size {
	return Literal(s)
}

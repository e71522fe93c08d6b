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

package specs

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/hcitest/hci-e2e/pkg/document"
)

var (
	// ErrDiscriminatorMismatch is returned when a document is not of the kind a builder reconstructs.
	ErrDiscriminatorMismatch = errors.New("document discriminator mismatch")
	// ErrFieldNotFound is returned when a document lacks a field required for reconstruction.
	ErrFieldNotFound = errors.New("required field not found")
)

func discriminatorError(field, expected, actual string) error {
	return errors.Wrapf(ErrDiscriminatorMismatch, "expected %s %q but was %q", field, expected, actual)
}

func fieldNotFound(path ...string) error {
	return errors.Wrap(ErrFieldNotFound, strings.Join(path, "."))
}

func checkType(doc document.Document, expected string) error {
	actual, _ := document.String(doc, "type")
	if actual != expected {
		return discriminatorError("type", expected, actual)
	}
	return nil
}

func requireMap(doc document.Document, path ...string) (document.Document, error) {
	m, ok := document.Map(doc, path...)
	if !ok {
		return nil, fieldNotFound(path...)
	}
	return m, nil
}

func requireString(doc document.Document, path ...string) (string, error) {
	s, ok := document.String(doc, path...)
	if !ok {
		return "", fieldNotFound(path...)
	}
	return s, nil
}

func requireInt64(doc document.Document, path ...string) (int64, error) {
	n, ok := document.Int64(doc, path...)
	if !ok {
		return 0, fieldNotFound(path...)
	}
	return n, nil
}

func stringOr(doc document.Document, def string, path ...string) string {
	if s, ok := document.String(doc, path...); ok {
		return s
	}
	return def
}

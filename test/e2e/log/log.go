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

// Package log writes leveled e2e progress lines to the Ginkgo writer.
package log

import (
	"fmt"
	"time"

	ginkgov2 "github.com/onsi/ginkgo/v2"
)

// Level prefixes every line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

func Debugf(format string, a ...interface{}) {
	Logf(LevelDebug, format, a...)
}

func Infof(format string, a ...interface{}) {
	Logf(LevelInfo, format, a...)
}

func Warnf(format string, a ...interface{}) {
	Logf(LevelWarn, format, a...)
}

func Errorf(format string, a ...interface{}) {
	Logf(LevelError, format, a...)
}

// Byf logs a step at info level and records it as a Ginkgo step.
func Byf(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	Logf(LevelInfo, "%s", msg)
	ginkgov2.By(msg)
}

// Logf writes one timestamped line at the given level.
func Logf(level Level, format string, a ...interface{}) {
	fmt.Fprintf(ginkgov2.GinkgoWriter, "%s %s: %s\n", time.Now().UTC().Format(time.RFC3339), level, fmt.Sprintf(format, a...))
}

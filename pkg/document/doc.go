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

// Package document holds the wire document type shared by every spec builder
// and the helpers used to copy, merge, read and encode documents.
//
// A Document only ever contains JSON value types (string, int64, float64, bool,
// nil, []interface{} and map[string]interface{}), the same contract as
// unstructured.Unstructured, so it can be deep copied without reflection.
package document

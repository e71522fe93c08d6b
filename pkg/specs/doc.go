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

// Package specs builds platform resource documents from imperative builder
// objects and rebuilds builders from documents returned by the platform.
//
// Builders never perform I/O. Every builder reconstructed from a document
// keeps that document as its base and lays freshly computed fields on top of
// it when serialized again (see document.Merge), so fields assigned by the
// platform survive an edit and resubmit cycle.
package specs

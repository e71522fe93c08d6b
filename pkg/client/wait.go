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

package client

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/hcitest/hci-e2e/pkg/document"
)

const pollingInterval = time.Second * 2

// ConditionFunc reports whether a fetched object reached the state waited for.
type ConditionFunc func(doc document.Document) (done bool, err error)

// WaitFor polls the object every interval until cond holds, cond fails, or
// timeout passes. A zero interval polls every 2 seconds. Objects that do not
// exist yet are polled again. The last fetched document is returned.
func WaitFor(ctx context.Context, t Transport, collection, namespace, name string, interval, timeout time.Duration, cond ConditionFunc) (document.Document, error) {
	if interval == 0 {
		interval = pollingInterval
	}
	log := ctrl.LoggerFrom(ctx)
	var last document.Document
	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		_, doc, err := t.Get(ctx, collection, namespace, name)
		if IsNotFound(err) {
			log.V(1).Info(fmt.Sprintf("%s %s/%s does not exist yet", collection, namespace, name))
			return false, nil
		}
		if err != nil {
			log.Error(err, fmt.Sprintf("error occurred while waiting for %s %s/%s", collection, namespace, name))
			return false, err
		}
		last = doc
		return cond(doc)
	})
	if err != nil {
		return last, fmt.Errorf("waiting for %s %s/%s: %w", collection, namespace, name, err)
	}
	return last, nil
}

// WaitForDeletion polls until the object no longer exists.
func WaitForDeletion(ctx context.Context, t Transport, collection, namespace, name string, interval, timeout time.Duration) error {
	if interval == 0 {
		interval = pollingInterval
	}
	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		_, _, err := t.Get(ctx, collection, namespace, name)
		if IsNotFound(err) {
			return true, nil
		}
		return false, err
	})
	if err != nil {
		return fmt.Errorf("waiting for deletion of %s %s/%s: %w", collection, namespace, name, err)
	}
	return nil
}

// FieldEquals holds when the value at path equals want.
func FieldEquals(want interface{}, path ...string) ConditionFunc {
	return func(doc document.Document) (bool, error) {
		got, ok := document.Get(doc, path...)
		return ok && got == want, nil
	}
}

// ConditionTrue holds when status.conditions has a condition of type
// conditionType with status "True".
func ConditionTrue(conditionType string) ConditionFunc {
	return func(doc document.Document) (bool, error) {
		conditions, _ := document.Slice(doc, "status", "conditions")
		for _, c := range conditions {
			condition, ok := c.(map[string]interface{})
			if !ok || condition["type"] != conditionType {
				continue
			}
			return condition["status"] == "True", nil
		}
		return false, nil
	}
}

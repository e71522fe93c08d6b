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
	"k8s.io/utils/ptr"

	"github.com/hcitest/hci-e2e/pkg/document"
)

const (
	MonitoringAddonName      = "rancher-monitoring"
	MonitoringAddonNamespace = "cattle-monitoring-system"
	MonitoringAddonVersion   = "103.1.1+up45.31.1"

	LoggingAddonName      = "rancher-logging"
	LoggingAddonNamespace = "cattle-logging-system"
	LoggingAddonVersion   = "103.1.0+up4.4.0"

	// AddonChartRepo is the in-cluster chart repository serving bundled addons.
	AddonChartRepo = "http://harvester-cluster-repo.cattle-system.svc/charts"
)

// MetricsStoreConfig configures the metrics store of the monitoring addon.
type MetricsStoreConfig struct {
	ComponentConfig
	ScrapeInterval     string
	EvaluationInterval string
	Retention          string
	RetentionSize      string
}

func newMetricsStoreConfig(values document.Document) *MetricsStoreConfig {
	c := &MetricsStoreConfig{ComponentConfig: newComponentConfig(values, "prometheus", "prometheusSpec")}
	c.ScrapeInterval = scalarString(values, c.at("scrapeInterval")...)
	c.EvaluationInterval = scalarString(values, c.at("evaluationInterval")...)
	c.Retention = scalarString(values, c.at("retention")...)
	c.RetentionSize = scalarString(values, c.at("retentionSize")...)
	return c
}

func (c *MetricsStoreConfig) Sync() error {
	for key, value := range map[string]string{
		"scrapeInterval":     c.ScrapeInterval,
		"evaluationInterval": c.EvaluationInterval,
		"retention":          c.Retention,
		"retentionSize":      c.RetentionSize,
	} {
		if err := setScalar(c.values, value, c.at(key)...); err != nil {
			return err
		}
	}
	return c.ComponentConfig.Sync()
}

// AlertManagerConfig configures the alert manager of the monitoring addon.
type AlertManagerConfig struct {
	ComponentConfig
	// Enabled is nil when the values leave the chart default in place.
	Enabled   *bool
	Retention string
}

func newAlertManagerConfig(values document.Document) *AlertManagerConfig {
	c := &AlertManagerConfig{ComponentConfig: newComponentConfig(values, "alertmanager", "alertmanagerSpec")}
	if enabled, ok := document.Bool(values, "alertmanager", "enabled"); ok {
		c.Enabled = ptr.To(enabled)
	}
	c.Retention = scalarString(values, c.at("retention")...)
	return c
}

func (c *AlertManagerConfig) Sync() error {
	if c.Enabled != nil {
		if err := document.Set(c.values, *c.Enabled, "alertmanager", "enabled"); err != nil {
			return err
		}
	}
	if err := setScalar(c.values, c.Retention, c.at("retention")...); err != nil {
		return err
	}
	return c.ComponentConfig.Sync()
}

// MonitoringAddon is the monitoring stack addon.
type MonitoringAddon struct {
	*AddonSpec

	Exporter     *ComponentConfig
	Dashboard    *ComponentConfig
	MetricsStore *MetricsStoreConfig
	AlertManager *AlertManagerConfig
}

// NewMonitoringAddon returns the monitoring addon with the values the
// platform ships it with.
func NewMonitoringAddon() *MonitoringAddon {
	a := NewAddonSpec(MonitoringAddonName, MonitoringAddonNamespace, AddonChartRepo, MonitoringAddonName, MonitoringAddonVersion)
	a.Value = document.Document{
		"prometheus": map[string]interface{}{
			"prometheusSpec": map[string]interface{}{
				"scrapeInterval":     "1m",
				"evaluationInterval": "1m",
				"retention":          "5d",
				"retentionSize":      "50GiB",
				"resources":          resourcesValue("850m", "1750Mi", "1000m", "2500Mi"),
			},
		},
		"prometheus-node-exporter": map[string]interface{}{
			"resources": resourcesValue("100m", "30Mi", "200m", "180Mi"),
		},
		"grafana": map[string]interface{}{
			"resources": resourcesValue("100m", "200Mi", "200m", "500Mi"),
		},
		"alertmanager": map[string]interface{}{
			"enabled": true,
			"alertmanagerSpec": map[string]interface{}{
				"retention": "120h",
				"resources": resourcesValue("100m", "100Mi", "1000m", "600Mi"),
			},
		},
	}
	return newMonitoringAddon(a)
}

func newMonitoringAddon(a *AddonSpec) *MonitoringAddon {
	if a.Value == nil {
		a.Value = document.Document{}
	}
	exporter := newComponentConfig(a.Value, "prometheus-node-exporter")
	dashboard := newComponentConfig(a.Value, "grafana")
	return &MonitoringAddon{
		AddonSpec:    a,
		Exporter:     &exporter,
		Dashboard:    &dashboard,
		MetricsStore: newMetricsStoreConfig(a.Value),
		AlertManager: newAlertManagerConfig(a.Value),
	}
}

// Sync writes every component back into the addon values.
func (m *MonitoringAddon) Sync() error {
	for _, c := range []interface{ Sync() error }{m.Exporter, m.Dashboard, m.MetricsStore, m.AlertManager} {
		if err := c.Sync(); err != nil {
			return err
		}
	}
	return nil
}

func (m *MonitoringAddon) ToDocument() (document.Document, error) {
	if err := m.Sync(); err != nil {
		return nil, err
	}
	return m.AddonSpec.ToDocument()
}

// LoggingAddon is the logging stack addon.
type LoggingAddon struct {
	*AddonSpec

	FluentBit *ComponentConfig
	Fluentd   *ComponentConfig
}

// NewLoggingAddon returns the logging addon with the values the platform
// ships it with.
func NewLoggingAddon() *LoggingAddon {
	a := NewAddonSpec(LoggingAddonName, LoggingAddonNamespace, AddonChartRepo, LoggingAddonName, LoggingAddonVersion)
	a.Value = document.Document{
		"fluentbit": map[string]interface{}{
			"resources": resourcesValue("50m", "50Mi", "200m", "200Mi"),
		},
		"fluentd": map[string]interface{}{
			"resources": resourcesValue("100m", "200Mi", "1000m", "800Mi"),
		},
	}
	return newLoggingAddon(a)
}

func newLoggingAddon(a *AddonSpec) *LoggingAddon {
	if a.Value == nil {
		a.Value = document.Document{}
	}
	fluentBit := newComponentConfig(a.Value, "fluentbit")
	fluentd := newComponentConfig(a.Value, "fluentd")
	return &LoggingAddon{
		AddonSpec: a,
		FluentBit: &fluentBit,
		Fluentd:   &fluentd,
	}
}

func (l *LoggingAddon) Sync() error {
	if err := l.FluentBit.Sync(); err != nil {
		return err
	}
	return l.Fluentd.Sync()
}

func (l *LoggingAddon) ToDocument() (document.Document, error) {
	if err := l.Sync(); err != nil {
		return nil, err
	}
	return l.AddonSpec.ToDocument()
}

func resourcesValue(cpuRequest, memoryRequest, cpuLimit, memoryLimit string) map[string]interface{} {
	return map[string]interface{}{
		"requests": map[string]interface{}{
			"cpu":    cpuRequest,
			"memory": memoryRequest,
		},
		"limits": map[string]interface{}{
			"cpu":    cpuLimit,
			"memory": memoryLimit,
		},
	}
}

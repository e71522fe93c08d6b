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
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
	"k8s.io/klog/v2"
)

const envPrefix = "HCI"

// Config describes how to reach the platform API. It is read from HCI_*
// environment variables.
type Config struct {
	// Endpoint is the base URL of the platform, e.g. https://10.0.0.10.
	Endpoint string `envconfig:"ENDPOINT" required:"true"`
	// Token is sent as a bearer token.
	Token    string `envconfig:"TOKEN"`
	Insecure bool   `envconfig:"INSECURE" default:"false"`

	// QPS and Burst bound the request rate of one client.
	QPS   float64 `envconfig:"QPS" default:"20"`
	Burst int     `envconfig:"BURST" default:"40"`

	// RetryMax is the number of retries on connection errors and 5xx responses.
	RetryMax int           `envconfig:"RETRY_MAX" default:"2"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"30s"`

	// Debug logs request and response bodies.
	Debug bool `envconfig:"DEBUG" default:"false"`
}

// ConfigFromEnv reads the client configuration from the environment.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		errorMsg := fmt.Errorf("could not read client configuration: %w", err)
		klog.Error(errorMsg)
		return nil, errorMsg
	}
	if err := cfg.Validate(); err != nil {
		klog.Error(err)
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no client can work with.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("could not create client because endpoint was not set")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must use http or https", c.Endpoint)
	}
	if c.QPS <= 0 {
		return fmt.Errorf("qps must be positive but was %v", c.QPS)
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 but was %d", c.Burst)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("retry max must not be negative but was %d", c.RetryMax)
	}
	return nil
}

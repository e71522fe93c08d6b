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
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/hcitest/hci-e2e/pkg/document"
)

const apiPrefix = "/v1"

//go:generate mockgen -destination=../../mocks/client/transport_mock.go -package=mockclient github.com/hcitest/hci-e2e/pkg/client Transport

// Transport submits documents to the platform and returns what it stored.
// Every call returns the response status code alongside the document.
type Transport interface {
	Create(ctx context.Context, collection string, doc document.Document) (int, document.Document, error)
	Get(ctx context.Context, collection, namespace, name string) (int, document.Document, error)
	Update(ctx context.Context, collection string, doc document.Document) (int, document.Document, error)
	Delete(ctx context.Context, collection, namespace, name string) (int, document.Document, error)
}

// Client is the REST Transport. It is safe for concurrent use.
type Client struct {
	cfg     Config
	base    string
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

var _ Transport = &Client{}

// New returns a client for the platform described by cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		klog.Error(err)
		return nil, err
	}

	transport := cleanhttp.DefaultPooledTransport()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed test clusters
	}
	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient.Transport = transport
	httpClient.HTTPClient.Timeout = cfg.Timeout
	httpClient.RetryMax = cfg.RetryMax
	httpClient.Logger = nil
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	httpClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			ctrl.LoggerFrom(req.Context()).V(1).Info(fmt.Sprintf("Retrying %s %s", req.Method, req.URL.Path), "attempt", attempt)
		}
	}

	return &Client{
		cfg:     cfg,
		base:    strings.TrimSuffix(cfg.Endpoint, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst),
	}, nil
}

// NewFromEnv returns a client configured from HCI_* environment variables.
func NewFromEnv() (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(*cfg)
}

func (c *Client) Create(ctx context.Context, collection string, doc document.Document) (int, document.Document, error) {
	return c.do(ctx, http.MethodPost, collectionPath(collection), doc)
}

func (c *Client) Get(ctx context.Context, collection, namespace, name string) (int, document.Document, error) {
	return c.do(ctx, http.MethodGet, objectPath(collection, namespace, name), nil)
}

// Update replaces the object named by the metadata of doc.
func (c *Client) Update(ctx context.Context, collection string, doc document.Document) (int, document.Document, error) {
	name, _ := document.String(doc, "metadata", "name")
	if name == "" {
		return 0, nil, fmt.Errorf("cannot update %s without metadata.name", collection)
	}
	namespace, _ := document.String(doc, "metadata", "namespace")
	return c.do(ctx, http.MethodPut, objectPath(collection, namespace, name), doc)
}

func (c *Client) Delete(ctx context.Context, collection, namespace, name string) (int, document.Document, error) {
	return c.do(ctx, http.MethodDelete, objectPath(collection, namespace, name), nil)
}

func (c *Client) do(ctx context.Context, method, path string, body document.Document) (int, document.Document, error) {
	log := ctrl.LoggerFrom(ctx)
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var payload interface{}
	if body != nil {
		data, err := document.ToJSON(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request for %s %s: %w", method, path, err)
		}
		payload = data
		if c.cfg.Debug {
			log.Info(fmt.Sprintf("Request body for %s %s", method, path), "body", string(data))
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request for %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	log.V(1).Info(fmt.Sprintf("%s %s", method, path))
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error(err, fmt.Sprintf("error occurred during %s %s", method, path))
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}
	if c.cfg.Debug {
		log.Info(fmt.Sprintf("Response for %s %s", method, path), "status", resp.StatusCode, "body", string(data))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, nil, &StatusError{
			Code:   resp.StatusCode,
			Method: method,
			Path:   path,
			Body:   string(bytes.TrimSpace(data)),
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, document.Document{}, nil
	}

	doc, err := document.FromJSON(data)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("invalid response of %s %s: %w", method, path, err)
	}
	return resp.StatusCode, doc, nil
}

func collectionPath(collection string) string {
	return apiPrefix + "/" + url.PathEscape(collection)
}

// objectPath addresses a namespaced object, or a cluster scoped one when
// namespace is empty.
func objectPath(collection, namespace, name string) string {
	if namespace == "" {
		return collectionPath(collection) + "/" + url.PathEscape(name)
	}
	return collectionPath(collection) + "/" + url.PathEscape(namespace) + "/" + url.PathEscape(name)
}

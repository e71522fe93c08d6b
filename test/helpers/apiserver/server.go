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

// Package apiserver is an in-memory fake of the platform REST API for tests.
package apiserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hcitest/hci-e2e/pkg/document"
)

const baseURLPath = "/v1/"

// Server stores documents per collection and serves them over HTTP.
type Server struct {
	URL string

	mux    *http.ServeMux
	server *httptest.Server

	mu       sync.Mutex
	objects  map[string]map[string]document.Document
	requests int
	failures []int
}

// NewServer starts a fake API server. Close it when done.
func NewServer() *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		objects: map[string]map[string]document.Document{},
	}
	s.mux.HandleFunc(baseURLPath, s.serve)
	s.server = httptest.NewServer(s.mux)
	s.URL = s.server.URL
	return s
}

func (s *Server) Close() {
	s.server.Close()
}

// AddHandler overrides the handling of pattern.
func (s *Server) AddHandler(pattern string, handler func(w http.ResponseWriter, r *http.Request)) {
	s.mux.HandleFunc(pattern, handler)
}

// FailNext answers the next len(codes) requests with the given status codes.
func (s *Server) FailNext(codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, codes...)
}

// Requests returns the number of requests served by the store.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Put stores doc as if it had been created by the platform.
func (s *Server) Put(collection string, doc document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(collection, document.DeepCopy(doc))
}

// Object returns a copy of a stored document.
func (s *Server) Object(collection, namespace, name string) (document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.objects[collection][key(namespace, name)]
	if !ok {
		return nil, false
	}
	return document.DeepCopy(doc), true
}

// ObjectURLPath returns the path of an object in collection.
func ObjectURLPath(collection, namespace, name string) string {
	return path.Join(baseURLPath, collection, namespace, name)
}

func key(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

func (s *Server) store(collection string, doc document.Document) {
	if s.objects[collection] == nil {
		s.objects[collection] = map[string]document.Document{}
	}
	name, _ := document.String(doc, "metadata", "name")
	namespace, _ := document.String(doc, "metadata", "namespace")
	s.objects[collection][key(namespace, name)] = doc
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	if len(s.failures) > 0 {
		code := s.failures[0]
		s.failures = s.failures[1:]
		http.Error(w, fmt.Sprintf(`{"code": %d}`, code), code)
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, baseURLPath), "/"), "/")
	collection := parts[0]
	var namespace, name string
	switch len(parts) {
	case 1:
	case 2:
		name = parts[1]
	case 3:
		namespace, name = parts[1], parts[2]
	default:
		http.Error(w, `{"message": "bad path"}`, http.StatusBadRequest)
		return
	}

	switch {
	case r.Method == http.MethodPost && name == "":
		s.create(w, r, collection)
	case r.Method == http.MethodGet && name != "":
		s.get(w, collection, namespace, name)
	case r.Method == http.MethodPut && name != "":
		s.update(w, r, collection, namespace, name)
	case r.Method == http.MethodDelete && name != "":
		s.delete(w, collection, namespace, name)
	default:
		http.Error(w, `{"message": "method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, collection string) {
	doc, ok := decode(w, r)
	if !ok {
		return
	}
	metadata, _ := document.Map(doc, "metadata")
	if metadata == nil {
		metadata = map[string]interface{}{}
		doc["metadata"] = metadata
	}
	name, _ := metadata["name"].(string)
	if name == "" {
		generateName, _ := metadata["generateName"].(string)
		if generateName == "" {
			http.Error(w, `{"message": "metadata.name is required"}`, http.StatusUnprocessableEntity)
			return
		}
		name = generateName + uuid.NewString()[:5]
		metadata["name"] = name
	}
	namespace, _ := metadata["namespace"].(string)
	if _, exists := s.objects[collection][key(namespace, name)]; exists {
		http.Error(w, `{"message": "already exists"}`, http.StatusConflict)
		return
	}
	metadata["uid"] = uuid.NewString()
	metadata["resourceVersion"] = "1"
	metadata["creationTimestamp"] = time.Now().UTC().Format(time.RFC3339)
	s.store(collection, doc)
	respond(w, http.StatusCreated, doc)
}

func (s *Server) get(w http.ResponseWriter, collection, namespace, name string) {
	doc, ok := s.objects[collection][key(namespace, name)]
	if !ok {
		http.Error(w, `{"message": "not found"}`, http.StatusNotFound)
		return
	}
	respond(w, http.StatusOK, doc)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, collection, namespace, name string) {
	current, ok := s.objects[collection][key(namespace, name)]
	if !ok {
		http.Error(w, `{"message": "not found"}`, http.StatusNotFound)
		return
	}
	doc, ok := decode(w, r)
	if !ok {
		return
	}
	version, _ := document.String(current, "metadata", "resourceVersion")
	if sent, ok := document.String(doc, "metadata", "resourceVersion"); ok && sent != version {
		http.Error(w, `{"message": "conflict"}`, http.StatusConflict)
		return
	}
	n, _ := strconv.Atoi(version)
	uid, _ := document.String(current, "metadata", "uid")
	if err := document.Set(doc, uid, "metadata", "uid"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := document.Set(doc, strconv.Itoa(n+1), "metadata", "resourceVersion"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.store(collection, doc)
	respond(w, http.StatusOK, doc)
}

func (s *Server) delete(w http.ResponseWriter, collection, namespace, name string) {
	doc, ok := s.objects[collection][key(namespace, name)]
	if !ok {
		http.Error(w, `{"message": "not found"}`, http.StatusNotFound)
		return
	}
	delete(s.objects[collection], key(namespace, name))
	respond(w, http.StatusOK, doc)
}

func decode(w http.ResponseWriter, r *http.Request) (document.Document, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	doc, err := document.FromJSON(data)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"message": %q}`, err.Error()), http.StatusBadRequest)
		return nil, false
	}
	return doc, true
}

func respond(w http.ResponseWriter, code int, doc document.Document) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(doc)
}

// Package testutil provides a fake Tapfiliate API for tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Call is one request received by the fake
type Call struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   map[string]any
}

// Failure is a canned error response for an endpoint
type Failure struct {
	Status      int
	ContentType string
	Body        string
}

// Endpoint names used with Fail
const (
	EndpointCustomFields = "custom-fields"
	EndpointCreate       = "create"
	EndpointUpdate       = "update"
	EndpointWebsite      = "website"
	EndpointParent       = "parent"
	EndpointEnroll       = "enroll"
)

// CustomField is a catalog entry served by the fake
type CustomField struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// DefaultCustomFields is the catalog served unless overridden
var DefaultCustomFields = []CustomField{
	{Key: "company_type", Title: "Company type"},
	{Key: "commission_type", Title: " Commission Type "},
	{Key: "wants_demo_call", Title: "Wants demo call"},
}

// FakeTapfiliate emulates the Tapfiliate endpoints the relay uses
type FakeTapfiliate struct {
	Server *httptest.Server

	mu           sync.Mutex
	calls        []Call
	failures     map[string]Failure
	customFields []CustomField
	createdID    any
}

// NewFakeTapfiliate starts a fake that is closed when the test ends
func NewFakeTapfiliate(t *testing.T) *FakeTapfiliate {
	t.Helper()
	f := &FakeTapfiliate{
		failures:     map[string]Failure{},
		customFields: append([]CustomField(nil), DefaultCustomFields...),
		createdID:    "jane-doe",
	}

	r := chi.NewRouter()
	r.Get("/affiliates/custom-fields/", f.handle(EndpointCustomFields, func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		f.mu.Lock()
		fields := f.customFields
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, fields)
	}))
	r.Post("/affiliates/", f.handle(EndpointCreate, func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
		f.mu.Lock()
		id := f.createdID
		f.mu.Unlock()
		resp := map[string]any{
			"firstname": body["firstname"],
			"lastname":  body["lastname"],
			"email":     body["email"],
		}
		if id != nil {
			resp["id"] = id
		}
		writeJSON(w, http.StatusCreated, resp)
	}))
	r.Patch("/affiliates/{id}/", f.handle(EndpointUpdate, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, map[string]any{"id": chi.URLParam(r, "id")})
	}))
	r.Put("/affiliates/{id}/meta-data/website/", f.handle(EndpointWebsite, func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
		writeJSON(w, http.StatusOK, body)
	}))
	r.Post("/affiliates/{id}/parent/", f.handle(EndpointParent, func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
		writeJSON(w, http.StatusOK, body)
	}))
	r.Post("/programs/{program}/affiliates/", f.handle(EndpointEnroll, func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"program":   chi.URLParam(r, "program"),
			"affiliate": body["affiliate"],
			"approved":  body["approved"],
		})
	}))

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL returns the API root to configure the client with
func (f *FakeTapfiliate) BaseURL() string {
	return f.Server.URL + "/"
}

// Fail makes endpoint answer with failure from now on
func (f *FakeTapfiliate) Fail(endpoint string, failure Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if failure.ContentType == "" {
		failure.ContentType = "application/json"
	}
	f.failures[endpoint] = failure
}

// SetCustomFields replaces the served catalog
func (f *FakeTapfiliate) SetCustomFields(fields []CustomField) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customFields = fields
}

// SetCreatedID sets the id returned on creation; nil omits it
func (f *FakeTapfiliate) SetCreatedID(id any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdID = id
}

// Calls returns every request received so far
func (f *FakeTapfiliate) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the requests received for method and a path prefix
func (f *FakeTapfiliate) CallsTo(method, pathPrefix string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, pathPrefix) {
			out = append(out, c)
		}
	}
	return out
}

// CallsFor returns the requests received for one of the Endpoint names
func (f *FakeTapfiliate) CallsFor(endpoint string) []Call {
	switch endpoint {
	case EndpointCustomFields:
		return f.CallsTo(http.MethodGet, "/affiliates/custom-fields/")
	case EndpointCreate:
		var out []Call
		for _, c := range f.CallsTo(http.MethodPost, "/affiliates/") {
			if c.Path == "/affiliates/" {
				out = append(out, c)
			}
		}
		return out
	case EndpointUpdate:
		return f.CallsTo(http.MethodPatch, "/affiliates/")
	case EndpointWebsite:
		return f.CallsTo(http.MethodPut, "/affiliates/")
	case EndpointParent:
		var out []Call
		for _, c := range f.CallsTo(http.MethodPost, "/affiliates/") {
			if strings.HasSuffix(c.Path, "/parent/") {
				out = append(out, c)
			}
		}
		return out
	case EndpointEnroll:
		return f.CallsTo(http.MethodPost, "/programs/")
	}
	return nil
}

func (f *FakeTapfiliate) handle(endpoint string, next func(http.ResponseWriter, *http.Request, map[string]any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}

		f.mu.Lock()
		f.calls = append(f.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			APIKey: r.Header.Get("X-Api-Key"),
			Body:   body,
		})
		failure, failing := f.failures[endpoint]
		f.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", failure.ContentType)
			w.WriteHeader(failure.Status)
			_, _ = io.WriteString(w, failure.Body)
			return
		}
		next(w, r, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

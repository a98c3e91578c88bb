// Package testkit: runner.go
//
// Run() executes a single scenario against an http.Handler.
// RunDir() discovers all scenario files in a directory and runs them in
// lexical order as subtests.
package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	phttp "github.com/shashiranjanraj/parcelhub/pkg/http"
)

// ─── Public API ───────────────────────────────────────────────────────────────

// Run executes a single scenario from a JSON file against the provided handler.
//
// Lifecycle per scenario:
//  1. Load the scenario JSON file.
//  2. Read request body from requestFileName (if set).
//  3. Install the HTTP mock transport on pkg/http's client.
//  4. Fire the request against handler using httptest.
//  5. Assert status code.
//  6. Assert response body (JSON diff) against responseFileName (if set).
//  7. Verify all isMock=true steps were called.
func Run(t *testing.T, handler http.Handler, scenarioPath string) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}

	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, handler, s)
	})
}

// RunDir runs every scenario file in dir (request/response body files,
// named *_req.json and *_res.json, are skipped) in lexical order.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()

	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatalf("testkit: glob %q: %v", dir, err)
	}
	sort.Strings(entries)

	ran := 0
	for _, path := range entries {
		if isBodyFile(path) {
			continue
		}
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("testkit: load %q: %v", path, err)
			continue
		}

		ran++
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, handler, s)
		})
	}
	if ran == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}
}

func isBodyFile(path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), ".json")
	return strings.HasSuffix(base, "_req") || strings.HasSuffix(base, "_res")
}

// ─── Internal execution ───────────────────────────────────────────────────────

func runScenario(t *testing.T, handler http.Handler, s *Scenario) {
	t.Helper()

	// ── 1. Build request body ─────────────────────────────────────────────

	var reqBody io.Reader
	if p := s.RequestBodyPath(); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("[%s] read request file %q: %v", s.Name, p, err)
		}
		reqBody = bytes.NewReader(data)
	}

	// ── 2. Install HTTP mock transport ────────────────────────────────────

	mt := NewMockTransport(s)
	originalTransport := phttp.DefaultClient.Transport
	phttp.DefaultClient.Transport = mt
	defer func() {
		phttp.DefaultClient.Transport = originalTransport
	}()

	// ── 3. Fire the request ───────────────────────────────────────────────

	method := strings.ToUpper(s.RequestMethod)
	req := httptest.NewRequest(method, s.RequestURL, reqBody)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// ── 4. Assert status code ─────────────────────────────────────────────

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())

	// ── 5. Assert response body ───────────────────────────────────────────

	if p := s.ResponseBodyPath(); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("[%s] read response file %q: %v", s.Name, p, err)
		} else {
			AssertJSONBody(t, s, expected, rec.Body.Bytes())
		}
	}

	// ── 6. Verify mocks were called ───────────────────────────────────────

	AssertMocksAllCalled(t, s, mt)
}

// ─── Debug helpers ────────────────────────────────────────────────────────────

// DumpScenario prints a human-readable summary of the scenario to stdout.
func DumpScenario(s *Scenario) {
	fmt.Printf("Scenario: %s\n", s.Name)
	fmt.Printf("  %s %s → %d\n", s.RequestMethod, s.RequestURL, s.ExpectedCode)
	fmt.Printf("  requestFile:  %s\n", s.RequestFileName)
	fmt.Printf("  responseFile: %s\n", s.ResponseFileName)
	fmt.Printf("  ignoreFields: %v\n", s.IgnoreFields)
	for i, step := range s.NetUtilMockStep {
		fmt.Printf("  mockStep[%d]: method=%s  isMock=%v  matchUrl=%q\n",
			i, step.Method, step.IsMock, step.MatchURL)
	}
}

// Package testkit provides a JSON-scenario-driven REST API testing framework.
//
// Each scenario is a JSON file that describes:
//   - The HTTP request to fire (method, URL, body file, headers)
//   - Expected HTTP status code
//   - Expected response body file (optional, for JSON diff assertion)
//   - Fields to ignore in the diff (generated ids, timestamps)
//   - Mock steps for outgoing HTTP calls made through pkg/http
//
// Scenario files live next to the *_test.go files:
//
//	testdata/
//	  01_create_parcel.json      ← scenario
//	  01_create_parcel_req.json  ← request body
//	  01_create_parcel_res.json  ← expected response body
//
// Files run in lexical order against one handler, so a numeric prefix
// expresses dependencies between scenarios:
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunDir(t, newTestKernel(t).Handler(), "testdata")
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ─── Schema ───────────────────────────────────────────────────────────────────

// Scenario describes a single REST API test case loaded from a JSON file.
type Scenario struct {
	// Meta
	Name        string `json:"name"`
	Description string `json:"description"`

	// Request
	RequestMethod   string            `json:"requestMethod"`   // GET, POST, PATCH, DELETE
	RequestURL      string            `json:"requestUrl"`      // e.g. /parcels
	RequestFileName string            `json:"requestFileName"` // path to JSON request body file (relative to scenario dir)
	Headers         map[string]string `json:"headers"`         // extra request headers

	// Response assertions
	ResponseFileName string   `json:"responseFileName"` // path to expected response JSON file
	ExpectedCode     int      `json:"expectedCode"`     // expected HTTP status code
	IgnoreFields     []string `json:"ignoreFields"`     // object keys dropped from both sides before the diff

	// Behaviour flags
	IsMockRequired bool `json:"isMockRequired"` // fail if an outgoing call has no matching mock

	// Mock steps for outgoing HTTP calls.
	NetUtilMockStep []MockStep `json:"netUtilMockStep"`

	// resolved at load time: not in JSON
	dir string // directory of the scenario file
}

// MockStep describes one intercepted outgoing call.
type MockStep struct {
	// Method identifies what is being mocked. Only "httprequest" is supported.
	Method string `json:"method"`

	// IsMock: when true the step is intercepted and returnData is returned.
	IsMock bool `json:"isMock"`

	// MatchURL is a prefix of the outgoing request URL. Empty matches any request.
	MatchURL string `json:"matchUrl"`

	// ReturnData is the synthetic response returned by the mock.
	ReturnData MockReturnData `json:"returnData"`
}

// MockReturnData is the synthetic response for a mock step.
type MockReturnData struct {
	// StatusCode defaults to 200.
	StatusCode int `json:"statusCode"`

	// Body is the base64-encoded response body. Use "" for empty responses.
	Body string `json:"body"`
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// LoadScenario reads and validates a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

// validate performs basic sanity checks on the loaded scenario.
func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	for i, step := range s.NetUtilMockStep {
		if step.Method != "httprequest" {
			return fmt.Errorf("netUtilMockStep[%d].method %q is not supported", i, step.Method)
		}
	}
	return nil
}

// RequestBodyPath returns the absolute path to the request body file,
// resolved relative to the scenario file's directory.
// Returns "" when RequestFileName is not set.
func (s *Scenario) RequestBodyPath() string {
	return s.resolve(s.RequestFileName)
}

// ResponseBodyPath returns the absolute path to the expected response file.
// Returns "" when ResponseFileName is not set.
func (s *Scenario) ResponseBodyPath() string {
	return s.resolve(s.ResponseFileName)
}

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

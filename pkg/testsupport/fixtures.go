package testsupport

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// DecodeJSON decodes a single JSON document from r into dest, typically an
// HTTP response body.
func DecodeJSON(t *testing.T, r io.Reader, dest any) {
	t.Helper()

	if err := json.NewDecoder(r).Decode(dest); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
}

// WriteTempFile writes content to name inside a per-test directory and
// returns the full path. The directory is removed when the test ends.
func WriteTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write temp file %s: %v", path, err)
	}

	return path
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// Scenario is a set of users and reviews to seed a database with.
type Scenario struct {
	Users   []ScenarioUser   `json:"users"`
	Reviews []ScenarioReview `json:"reviews"`
}

// ScenarioUser is an account in a Scenario. Password is plain text.
type ScenarioUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsStaff  bool   `json:"is_staff"`
}

// ScenarioReview is a review in a Scenario. Reviews are listed oldest first.
type ScenarioReview struct {
	Username    string `json:"username"`
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	FullAddress string `json:"full_address"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Rating      int    `json:"rating"`
}

// LoadScenario reads a Scenario fixture.
func LoadScenario(t *testing.T, path string) Scenario {
	t.Helper()

	var scenario Scenario
	LoadFixtureJSON(t, path, &scenario)
	if len(scenario.Users) == 0 {
		t.Fatalf("scenario %s has no users", path)
	}
	return scenario
}

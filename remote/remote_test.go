package remote

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectScheme(t *testing.T) {
	cases := map[string]scheme{
		"s3://bucket/key":        schemeS3,
		"S3://bucket/key":        schemeS3,
		"https://host/file.db":   schemeHTTPS,
		"http://host/file.db":    schemeHTTP,
		"file:///tmp/file.db":    schemeFile,
		"/tmp/file.db":           schemeLocal,
		"relative/path/file.db":  schemeLocal,
		":memory:":               schemeLocal,
	}
	for path, want := range cases {
		if got := detectScheme(path); got != want {
			t.Errorf("detectScheme(%q) = %v, expected %v", path, got, want)
		}
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://my-bucket/path/to/db.duckdb")
	if err != nil {
		t.Fatalf("parseS3URL failed: %v", err)
	}
	if bucket != "my-bucket" || key != "path/to/db.duckdb" {
		t.Errorf("Unexpected parse result (%q, %q)", bucket, key)
	}

	if _, _, err := parseS3URL("s3://bucket-only"); err == nil {
		t.Error("Expected error for S3 URL without key")
	}
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dest := filepath.Join(dir, "dest.db")
	if err := os.WriteFile(src, []byte("database bytes"), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	if err := Fetch(src, dest, nil); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read destination: %v", err)
	}
	if string(data) != "database bytes" {
		t.Errorf("Unexpected destination content %q", data)
	}
}

func TestFetchHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("served bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "dest.db")
	if err := Fetch(server.URL, dest, nil); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "served bytes" {
		t.Errorf("Unexpected destination content %q", data)
	}
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "dest.db")
	if err := Fetch(server.URL, dest, nil); err == nil {
		t.Error("Expected error for 404 response")
	}
}

func TestPublishHTTPUnsupported(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.db")
	os.WriteFile(src, []byte("x"), 0644)
	if err := Publish(src, "https://example.com/db", nil); err == nil {
		t.Error("Expected error publishing to HTTPS")
	}
}

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWritesResultsToStdoutAndLogsToStderr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/query/widget" {
			_, _ = w.Write([]byte(`{"uuid":"3f1c2a9e-6a55-4f3e-9d0a-2b7f4c1e8d11","response":1}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "client.conf")
	content := "[Service Info]\nendpoint = " + srv.URL + "\napi key = k\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ENDPOINT", "")
	t.Setenv("SERVICE_CONFIG_FILE", "")
	t.Setenv("HISTORY_TYPE", "none")
	t.Setenv("LOG_LEVEL", "debug")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--config", path, "query", "widget", `{"x":1}`}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "status: 200\n{\"uuid\":\"3f1c2a9e-6a55-4f3e-9d0a-2b7f4c1e8d11\",\"response\":1}\n"
	if stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}
	if !strings.Contains(stderr.String(), "psclient starting") {
		t.Fatalf("expected logs on stderr, got %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), path) {
		t.Fatalf("expected --config path in startup log, got %q", stderr.String())
	}
}

func TestRunRejectsMissingArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"query"}, &stdout, &stderr); err == nil {
		t.Fatalf("expected usage error")
	}
	if stdout.Len() != 0 {
		t.Fatalf("usage should not go to stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "usage:") {
		t.Fatalf("expected usage on stderr, got %q", stderr.String())
	}
}

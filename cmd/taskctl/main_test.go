package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spec-kit/taskflow-service/internal/session"
)

func fakeAPI(t *testing.T, logouts *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		exp := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		_, _ = w.Write([]byte(`{"data":{"user":{"id":"u1","name":"Ada","email":"ada@example.com","role":"ADMIN"},"auth":{"token":"tok","expires_at":"` + exp + `"}}}`))
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(logouts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginWhoamiLogout(t *testing.T) {
	var logouts int32
	srv := fakeAPI(t, &logouts)
	dir := t.TempDir()
	sessionFile := filepath.Join(dir, "session.json")
	passwordFile := filepath.Join(dir, "pw")
	if err := os.WriteFile(passwordFile, []byte("secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := run([]string{"login", "ada@example.com", "--server", srv.URL, "--session-file", sessionFile, "--password-file", passwordFile}, &out, &out)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	raw, err := os.ReadFile(sessionFile)
	if err != nil {
		t.Fatal(err)
	}
	var cached session.Session
	if err := json.Unmarshal(raw, &cached); err != nil || cached.Token != "tok" || cached.Server != srv.URL {
		t.Fatalf("cached = %+v, err = %v", cached, err)
	}

	out.Reset()
	if err := run([]string{"whoami", "--session-file", sessionFile}, &out, &out); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "ada@example.com") || !strings.Contains(out.String(), "ADMIN") {
		t.Fatalf("whoami output = %q", out.String())
	}

	out.Reset()
	if err := run([]string{"logout", "--session-file", sessionFile}, &out, &out); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if atomic.LoadInt32(&logouts) != 1 {
		t.Fatalf("server logout calls = %d", logouts)
	}
	if _, err := os.Stat(sessionFile); !os.IsNotExist(err) {
		t.Fatal("cache must be cleared even when the server call fails")
	}
}

func TestWhoamiWithoutSession(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"whoami", "--session-file", filepath.Join(t.TempDir(), "none.json")}, &out, &out)
	if err == nil || !strings.Contains(err.Error(), "not signed in") {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"frobnicate"}, &out, &out); err == nil {
		t.Fatal("expected error")
	}
	if err := run(nil, &out, &out); err == nil {
		t.Fatal("expected error for missing command")
	}
}

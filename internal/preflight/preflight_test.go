package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pitlane/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if result := CheckCredentials(cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	cfg.Debrid.APIToken = ""
	if result := CheckCredentials(cfg); result.Passed {
		t.Fatal("expected failure without a debrid token")
	}
}

func TestRunLocal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunLocal(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if RunLocal(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAllChecksRemoteServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/access_token":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
		case "/user":
			fmt.Fprint(w, `{"id":1,"username":"pit","type":"premium","premium":100}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithFeedURL(srv.URL), testsupport.WithDebridURL(srv.URL))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestCheckDebridRejectsBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad_token","error_code":8}`)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithDebridURL(srv.URL))
	result := CheckDebrid(context.Background(), cfg.Debrid)
	if result.Passed || !strings.Contains(result.Detail, "invalid api token") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckFeedReportsExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithFeedURL(srv.URL))
	result := CheckFeed(context.Background(), cfg.Feed)
	if result.Passed || result.Detail != "token exchange failed (credentials rejected)" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

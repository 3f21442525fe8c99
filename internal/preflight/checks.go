package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"pitlane/internal/config"
	"pitlane/internal/debrid"
	"pitlane/internal/feed"
	"pitlane/internal/store"
)

const remoteTimeout = 15 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCredentials verifies that every secret a pass needs is configured.
func CheckCredentials(cfg *config.Config) Result {
	const name = "Credentials"
	if err := cfg.ValidateCredentials(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "feed and debrid credentials present"}
}

// CheckDatabase opens the catalog and reports its table sizes.
func CheckDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Database"
	st, err := store.Open(cfg)
	if err != nil {
		if errors.Is(err, store.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (schema mismatch; move the file aside to rebuild)", cfg.DatabasePath())}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.DatabasePath(), err)}
	}
	defer st.Close()

	health, err := st.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.DatabasePath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema v%d, %d events, %d ledger entries)",
		health.Path, health.SchemaVersion, health.Events, health.LedgerEntries)}
}

// CheckFeed verifies that the password grant yields an access token.
func CheckFeed(ctx context.Context, cfg config.Feed) Result {
	const name = "Feed"
	client, err := feed.New(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	if err := client.RefreshCredentials(checkCtx); err != nil {
		if errors.Is(err, feed.ErrUnauthorized) {
			return Result{Name: name, Detail: "token exchange failed (credentials rejected)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("token exchange failed (%s)", summarize(err))}
	}
	return Result{Name: name, Passed: true, Detail: "token exchange ok for " + cfg.Author}
}

// CheckDebrid verifies that the API token is valid for a premium account.
func CheckDebrid(ctx context.Context, cfg config.Debrid) Result {
	const name = "Real-Debrid"
	client, err := debrid.New(cfg.APIToken, cfg.BaseURL, debrid.WithRateLimit(0))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	user, err := client.User(checkCtx)
	if err != nil {
		var apiErr *debrid.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == 401 || apiErr.StatusCode == 403) {
			return Result{Name: name, Detail: "auth failed (invalid api token)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%s)", summarize(err))}
	}
	if !user.IsPremium() {
		return Result{Name: name, Detail: fmt.Sprintf("account %s is not premium", user.Username)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("premium account %s", user.Username)}
}

func summarize(err error) string {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	if runes := []rune(msg); len(runes) > 120 {
		msg = strings.TrimSpace(string(runes[:120])) + "..."
	}
	return msg
}

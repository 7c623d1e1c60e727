package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"winelens/internal/config"
	"winelens/internal/deps"
	"winelens/internal/search"
	"winelens/internal/services"
)

const searchCheckTimeout = 5 * time.Second

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

// CheckSnapshot verifies the match index snapshot can be read and replaced.
// A missing snapshot passes; it is written on the first checkpoint.
func CheckSnapshot(path string) Result {
	const name = "Match index snapshot"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: "not written yet"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
	}
	if err := unix.Access(filepath.Dir(path), unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: directory not writable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
}

// CheckSearch verifies the search service is reachable and accepts the key.
// It makes a single attempt bounded by a short timeout.
func CheckSearch(ctx context.Context, cfg *config.Config) Result {
	const name = "Search service"

	if cfg == nil || !cfg.Search.Enabled {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	client, err := search.New(cfg.Search.APIKey, cfg.Search.BaseURL)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, searchCheckTimeout)
	defer cancel()
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeSearchError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

// CheckSystemDeps reports optional host tools and the OCR language data
// named in config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "Tesseract",
			Command:     "tesseract",
			Description: "needed for photo recognition in tesseract builds",
			Optional:    true,
		},
	})
	return append(statuses, deps.CheckTessdata(cfg.Recognizer.TesseractLanguage))
}

func summarizeSearchError(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "auth failed (invalid api key)"
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "health check timed out (search service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (search service unreachable)"
	}
	return err.Error()
}

// Package testutil provides shared helpers for integration-style tests:
// a log-capturing buffer and a harness that materializes HCL fixtures in a
// temporary directory and runs a full completion pass over them.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/attrgrid/internal/app"
	"github.com/vk/attrgrid/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of a harness run.
type HarnessResult struct {
	Report    string
	LogOutput string
	Err       error
	App       *app.App
}

// RunCompletion writes the given files under a temporary directory, points
// the app at it, and runs one completion pass. File names may contain
// subdirectories. Startup panics are converted into the returned error.
func RunCompletion(t *testing.T, files map[string]string, overrides app.Config) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	overrides.ConfigPath = tmpDir
	if overrides.LogLevel == "" {
		overrides.LogLevel = "debug"
	}
	if overrides.LogFormat == "" {
		overrides.LogFormat = "text"
	}
	appConfig, err := app.NewConfig(overrides)
	require.NoError(t, err)

	var outBuf, logBuf SafeBuffer
	result := &HarnessResult{}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("startup failed: %v", r)
			}
		}()
		result.App = app.NewApp(&outBuf, &logBuf, appConfig, hcl.NewLoader())
	}()
	if result.Err == nil {
		result.Err = result.App.Run(context.Background(), appConfig)
	}

	result.Report = outBuf.String()
	result.LogOutput = logBuf.String()
	return result
}

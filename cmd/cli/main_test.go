package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/attrgrid/internal/cli"
)

func TestRunDisplaysHelpWithoutArguments(t *testing.T) {
	var out, errOut bytes.Buffer

	err := run(&out, &errOut, nil)

	require.NoError(t, err)
	assert.Contains(t, errOut.String(), "Usage:")
	assert.Empty(t, out.String())
}

func TestRunReportsParseErrors(t *testing.T) {
	var out, errOut bytes.Buffer

	err := run(&out, &errOut, []string{"-log-level", "verbose", "grid.hcl"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunCompletesConfiguredPipeline(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "grid.hcl")
	require.NoError(t, os.WriteFile(configPath, []byte(`
completion {
  path_completion = "pattern"
}

schema "neuro" {
  processes = ["average"]
  attribute "root" {
    default = "/data"
  }
}

process "average" {
  output "mean" {
    path    = true
    pattern = "{root}/average.nii"
  }
}

pipeline "study" {
  node "average" {
    process = "average"
  }
}
`), 0o644))

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, []string{"-log-level", "error", configPath})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "/data/average.nii")
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Spectral(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"run", "--repetitions=3", "--signal-length=2048", "--log-level=debug", "spectral", "tensor-cpu"},
		strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Regexp(t, `^[0-9.e+-]+,tensor-CPU,(true|false)$`, line)
	}
	assert.Contains(t, stderr.String(), "run=")
}

func TestRun_UnknownBackend(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"spectral", "quantum"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "unsupported backend")
}

func TestRun_MissingArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"run", "spectral"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
}

func TestRun_Summary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, os.WriteFile(path, []byte("2,reference-CPU,fit\n1,tensor-CPU,fit\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"summary", path}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "phase,backend,runs,mean_seconds,std_seconds,speedup\n"+
		"fit,reference-CPU,1,2,0,1.000\n"+
		"fit,tensor-CPU,1,1,0,2.000\n", stdout.String())
}

func TestRun_SummaryFromStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"summary"}, strings.NewReader("0.5,tensor-gpu,true\n"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "true,tensor-GPU,1,0.5,0,\n")
}

func TestRun_SummaryMalformed(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"summary"}, strings.NewReader("oops\n"), &stdout, &stderr)
	assert.Equal(t, 1, code)
}

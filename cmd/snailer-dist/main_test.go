package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixaihub/snailer-dist/internal/config"
	"github.com/felixaihub/snailer-dist/internal/manifest"
	"github.com/felixaihub/snailer-dist/internal/platform"
	"github.com/felixaihub/snailer-dist/internal/release"
	"github.com/felixaihub/snailer-dist/internal/testutil"
)

// execute runs rootCmd with args and returns what it wrote to stdout and stderr.
// Commands share package-level flag state, so these tests do not run in parallel.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag of cmd and its children to its default value.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.KeySkipPostinstall, config.KeyOrg, config.KeyRepo, config.KeyName,
		config.KeyVersion, config.KeyInstallDir, config.KeyBaseURL, config.KeySHA256,
		config.KeyManifest, config.KeyRequireChecksum,
	} {
		t.Setenv(config.EnvName(key), "")
		os.Unsetenv(config.EnvName(key))
	}
	t.Setenv("npm_package_version", "")
	os.Unsetenv("npm_package_version")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelWarn},
		{"", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version", "-o", "json")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestRootCommand_InvalidOutput(t *testing.T) {
	_, _, err := execute(t, "version", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestLocateCommand(t *testing.T) {
	clearEnv(t)
	installDir := filepath.Join(t.TempDir(), "libexec")

	tests := []struct {
		name     string
		args     []string
		wantURL  string
		wantKind string
		wantBin  string
	}{
		{
			name:     "linux amd64",
			args:     []string{"--os", "linux", "--arch", "amd64", "--version", "0.1.12"},
			wantURL:  "https://github.com/felixaihub/snailer-cli/releases/download/v0.1.12/snailer-v0.1.12-x86_64-unknown-linux-musl.tar.gz",
			wantKind: "tar.gz",
			wantBin:  filepath.Join(installDir, "snailer"),
		},
		{
			name:     "windows",
			args:     []string{"--os", "windows", "--arch", "arm64", "--version", "v0.1.12"},
			wantURL:  "https://github.com/felixaihub/snailer-cli/releases/download/v0.1.12/snailer-v0.1.12-x86_64-pc-windows-msvc.zip",
			wantKind: "zip",
			wantBin:  filepath.Join(installDir, "snailer.exe"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"locate", "-o", "json", "--install-dir", installDir}, tt.args...)
			stdout, _, err := execute(t, args...)
			require.NoError(t, err)

			var info LocateInfo
			require.NoError(t, json.Unmarshal([]byte(stdout), &info))
			assert.Equal(t, tt.wantURL, info.URL)
			assert.Equal(t, tt.wantKind, info.Kind)
			assert.Equal(t, tt.wantBin, info.BinaryPath)
		})
	}
}

func TestLocateCommand_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SNAILER_ORG", "acme")
	t.Setenv("SNAILER_REPO", "snailer-fork")
	t.Setenv("SNAILER_VERSION", "1.2.3")

	stdout, _, err := execute(t, "locate", "-o", "json", "--os", "darwin", "--arch", "arm64")
	require.NoError(t, err)

	var info LocateInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "https://github.com/acme/snailer-fork/releases/download/v1.2.3/snailer-v1.2.3-aarch64-apple-darwin.tar.gz", info.URL)
}

func TestLocateCommand_UnsupportedPlatform(t *testing.T) {
	clearEnv(t)

	_, _, err := execute(t, "locate", "--os", "freebsd", "--arch", "amd64", "--version", "0.1.12")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "freebsd")
}

func TestFormulaCommand(t *testing.T) {
	want, err := os.ReadFile(filepath.Join("..", "..", "internal", "formula", "testdata", "snailer-v0.1.12.rb"))
	require.NoError(t, err)

	t.Run("stdout", func(t *testing.T) {
		stdout, _, err := execute(t, "formula", "--version", "0.1.12")
		require.NoError(t, err)
		assert.Equal(t, string(want), stdout)
	})

	t.Run("file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "snailer.rb")
		_, stderr, err := execute(t, "formula", "--file", out)
		require.NoError(t, err)
		assert.Contains(t, stderr, out)

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	})

	t.Run("unknown version", func(t *testing.T) {
		_, _, err := execute(t, "formula", "--version", "9.9.9")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no release")
	})
}

func TestInstallCommand_Skip(t *testing.T) {
	clearEnv(t)
	t.Setenv("SNAILER_SKIP_POSTINSTALL", "1")
	installDir := filepath.Join(t.TempDir(), "libexec")

	stdout, _, err := execute(t, "install", "--install-dir", installDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[snailer] Skipping binary download (SNAILER_SKIP_POSTINSTALL=1).")
	assert.NoDirExists(t, installDir)
}

func TestInstallCommand_SkipIgnoresInvalidSettings(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"SNAILER_VERSION", "not-a-version"},
		{"SNAILER_BASE_URL", "ftp://example.com"},
		{"SNAILER_SHA256", "not-a-digest"},
		{"SNAILER_ORG", "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SNAILER_SKIP_POSTINSTALL", "1")
			t.Setenv(tt.env, tt.value)

			stdout, _, err := execute(t, "install", "-o", "json")
			require.NoError(t, err)
			assert.Contains(t, stdout, "[snailer] Skipping binary download (SNAILER_SKIP_POSTINSTALL=1).")
			assert.Contains(t, stdout, `"skipped": true`)
		})
	}
}

func TestInstallCommand_InvalidVersion(t *testing.T) {
	clearEnv(t)

	_, _, err := execute(t, "install", "--install-dir", t.TempDir(), "--version", "banana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "banana")
}

func TestManifestShowCommand(t *testing.T) {
	t.Run("embedded yaml", func(t *testing.T) {
		stdout, _, err := execute(t, "manifest", "show")
		require.NoError(t, err)
		assert.Contains(t, stdout, "version: v0.1.12")
		assert.Contains(t, stdout, "332d1bfc25f97ec5289f7930979429b2b3d4a6987cc61e54c878c6cf793a4e61")
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := execute(t, "manifest", "show", "-o", "json")
		require.NoError(t, err)

		var m manifest.Manifest
		require.NoError(t, json.Unmarshal([]byte(stdout), &m))
		require.NotEmpty(t, m.Releases)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "manifest", "show", "--file", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestManifestAddCommand(t *testing.T) {
	archive := testutil.TarGz(t, map[string]testutil.File{"snailer": {Body: "bin", Mode: 0755}})
	const assetPath = "/felixaihub/snailer-cli/releases/download/v0.2.0/snailer-v0.2.0-x86_64-unknown-linux-musl.tar.gz"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != assetPath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	file := filepath.Join(t.TempDir(), "manifest.yaml")
	_, stderr, err := execute(t, "manifest", "add",
		"--version", "0.2.0",
		"--file", file,
		"--base-url", srv.URL,
		"--no-api",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Recorded 1 digests")

	m, err := manifest.Load(file)
	require.NoError(t, err)

	expected, ok := m.Lookup(release.DefaultCoordinates("v0.2.0"), platform.TripleLinuxAMD64)
	require.True(t, ok)
	assert.Equal(t, testutil.SHA256(archive), string(expected.Digest))
	assert.Equal(t, "v0.2.0", m.Releases[0].Version)

	t.Run("version required", func(t *testing.T) {
		_, _, err := execute(t, "manifest", "add", "--file", file)
		require.Error(t, err)
	})

	t.Run("unknown triple", func(t *testing.T) {
		before, err := os.ReadFile(file)
		require.NoError(t, err)

		_, _, err = execute(t, "manifest", "add",
			"--version", "0.2.1",
			"--file", file,
			"--base-url", srv.URL,
			"--no-api",
			"--triple", "x86_64-unknown-freebsd",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown triple")

		after, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestDoctorCommand(t *testing.T) {
	clearEnv(t)
	installDir := filepath.Join(t.TempDir(), "libexec")

	stdout, _, err := execute(t, "doctor", "--install-dir", installDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "install directory not found at "+installDir)
	assert.Contains(t, stdout, "snailer-dist install")

	stdout, _, err = execute(t, "doctor", "--install-dir", installDir, "-o", "json")
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, installDir, result["installDir"])
}

package ui

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixaihub/snailer-dist/internal/installer/download"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

// newNonTTYProgressManager creates a ProgressManager that behaves as non-TTY for testing.
func newNonTTYProgressManager(w *bytes.Buffer) *ProgressManager {
	return &ProgressManager{
		w:     w,
		isTTY: false,
		style: NewStyle(),
	}
}

func TestStyle_Println(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewStyle().Println(&buf, "Installed binary from %s", "https://example.com/a.tar.gz")

	assert.Equal(t, "[snailer] Installed binary from https://example.com/a.tar.gz\n", buf.String())
}

func TestNewProgressManager_DetectsTTYFromWriter(t *testing.T) {
	t.Parallel()

	assert.False(t, NewProgressManager(&bytes.Buffer{}).isTTY)

	logFile, err := os.Create(filepath.Join(t.TempDir(), "install.log"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = logFile.Close() })

	pm := NewProgressManager(logFile)
	assert.False(t, pm.isTTY, "a redirected stream must not get a progress bar")
	assert.Nil(t, pm.progress)
}

func TestProgressManager_Stages_NonTTY(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	pm := newNonTTYProgressManager(&buf)
	ctx := pm.Context(context.Background(), "snailer-v0.1.12-x86_64-unknown-linux-musl.tar.gz")

	stage := download.CallbackFromContext[download.StageCallback](ctx)
	require.NotNil(t, stage)
	progress := download.ProgressFromContext(ctx)
	require.NotNil(t, progress)

	stage("download")
	progress(10, 100)
	progress(100, 100)
	stage("download")
	stage("verify")
	pm.Complete()
	pm.Wait()

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "→ download"), "repeated stage should print once")
	assert.Contains(t, out, "→ verify snailer-v0.1.12-x86_64-unknown-linux-musl.tar.gz")
	assert.Contains(t, out, "✓ snailer-v0.1.12-x86_64-unknown-linux-musl.tar.gz")
}

func TestProgressManager_Abort_NonTTY(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	pm := newNonTTYProgressManager(&buf)
	ctx := pm.Context(context.Background(), "snailer.tar.gz")

	download.CallbackFromContext[download.StageCallback](ctx)("extract")
	pm.Abort()

	assert.Contains(t, buf.String(), "✗ snailer.tar.gz failed during extract")
}

func TestProgressManager_NoStages_NonTTY(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	pm := newNonTTYProgressManager(&buf)
	pm.Complete()
	pm.Abort()

	assert.Empty(t, buf.String())
}

func TestLogHandler_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level slog.Level
		log   func(l *slog.Logger)
		want  string
	}{
		{
			name:  "warn at warn level",
			level: slog.LevelWarn,
			log:   func(l *slog.Logger) { l.Warn("no checksum published") },
			want:  "[snailer] ⚠ warning: no checksum published\n",
		},
		{
			name:  "error at warn level",
			level: slog.LevelWarn,
			log:   func(l *slog.Logger) { l.Error("boom") },
			want:  "[snailer] ✗ error: boom\n",
		},
		{
			name:  "info ignored at warn level",
			level: slog.LevelWarn,
			log:   func(l *slog.Logger) { l.Info("hidden") },
			want:  "",
		},
		{
			name:  "debug at debug level",
			level: slog.LevelDebug,
			log:   func(l *slog.Logger) { l.Debug("resolving") },
			want:  "[snailer] debug: resolving\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.log(slog.New(NewLogHandler(&buf, tt.level)))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLogHandler_AttrsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(&buf, slog.LevelInfo)).
		With("version", "v0.1.12").
		WithGroup("asset")

	logger.Info("downloading", "file", "snailer.tar.gz")

	out := buf.String()
	assert.Contains(t, out, `version="v0.1.12"`)
	assert.Contains(t, out, `asset.file="snailer.tar.gz"`)
}

package extract

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixaihub/snailer-dist/internal/testutil"
)

func TestForOS(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ArchiveTypeZip, ForOS("windows"))
	assert.Equal(t, ArchiveTypeTarGz, ForOS("linux"))
	assert.Equal(t, ArchiveTypeTarGz, ForOS("darwin"))
	assert.Equal(t, "zip", ArchiveTypeZip.Extension())
	assert.Equal(t, "tar.gz", ArchiveTypeTarGz.Extension())
}

func TestDetectArchiveType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected ArchiveType
	}{
		{
			name:     "release tar.gz",
			input:    "https://github.com/felixaihub/snailer-cli/releases/download/v0.1.12/snailer-v0.1.12-x86_64-unknown-linux-musl.tar.gz",
			expected: ArchiveTypeTarGz,
		},
		{
			name:     "release zip",
			input:    "https://github.com/felixaihub/snailer-cli/releases/download/v0.1.12/snailer-v0.1.12-x86_64-pc-windows-msvc.zip",
			expected: ArchiveTypeZip,
		},
		{name: "tgz", input: "tool.tgz", expected: ArchiveTypeTarGz},
		{name: "tar.xz", input: "tool.tar.xz", expected: ArchiveTypeTarXz},
		{name: "uppercase", input: "TOOL.ZIP", expected: ArchiveTypeZip},
		{name: "unknown", input: "https://example.com/tool.exe", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, DetectArchiveType(tt.input))
		})
	}
}

func TestNewExtractor(t *testing.T) {
	t.Parallel()

	for _, typ := range []ArchiveType{ArchiveTypeTarGz, ArchiveTypeTarXz, ArchiveTypeZip} {
		e, err := NewExtractor(typ)
		require.NoError(t, err)
		assert.NotNil(t, e)
	}

	_, err := NewExtractor("rar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive type")
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	files := map[string]testutil.File{
		"snailer":     {Body: "#!/bin/sh\necho snailer\n", Mode: 0755},
		"README.md":   {Body: "readme"},
		"doc/EULA.md": {Body: "eula"},
	}

	tests := []struct {
		name string
		typ  ArchiveType
		data []byte
	}{
		{name: "tar.gz", typ: ArchiveTypeTarGz, data: testutil.TarGz(t, files)},
		{name: "tar.xz", typ: ArchiveTypeTarXz, data: testutil.TarXz(t, files)},
		{name: "zip", typ: ArchiveTypeZip, data: testutil.Zip(t, files)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			destDir := t.TempDir()
			e, err := NewExtractor(tt.typ)
			require.NoError(t, err)

			require.NoError(t, e.Extract(bytes.NewReader(tt.data), destDir))

			content, err := os.ReadFile(filepath.Join(destDir, "snailer"))
			require.NoError(t, err)
			assert.Equal(t, "#!/bin/sh\necho snailer\n", string(content))

			content, err = os.ReadFile(filepath.Join(destDir, "doc", "EULA.md"))
			require.NoError(t, err)
			assert.Equal(t, "eula", string(content))

			if runtime.GOOS != "windows" {
				info, err := os.Stat(filepath.Join(destDir, "snailer"))
				require.NoError(t, err)
				assert.NotZero(t, info.Mode()&0100, "executable bit should be preserved")
			}
		})
	}
}

func TestExtractFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "snailer.tar.gz")
	require.NoError(t, os.WriteFile(archive, testutil.TarGz(t, map[string]testutil.File{
		"snailer": {Body: "bin", Mode: 0755},
	}), 0644))

	dest := filepath.Join(dir, "out", "nested")
	require.NoError(t, ExtractFile(archive, ArchiveTypeTarGz, dest))

	_, err := os.Stat(filepath.Join(dest, "snailer"))
	require.NoError(t, err)
}

func TestExtractFile_Missing(t *testing.T) {
	t.Parallel()

	err := ExtractFile(filepath.Join(t.TempDir(), "nope.tar.gz"), ArchiveTypeTarGz, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open archive")
}

func TestExtractor_CorruptArchive(t *testing.T) {
	t.Parallel()

	notFound := []byte("<html><body>404 Not Found</body></html>")

	tests := []struct {
		name string
		typ  ArchiveType
	}{
		{name: "tar.gz", typ: ArchiveTypeTarGz},
		{name: "tar.xz", typ: ArchiveTypeTarXz},
		{name: "zip", typ: ArchiveTypeZip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := NewExtractor(tt.typ)
			require.NoError(t, err)
			require.Error(t, e.Extract(bytes.NewReader(notFound), t.TempDir()))
		})
	}
}

func TestExtractor_EmptyTar(t *testing.T) {
	t.Parallel()

	data := testutil.TarGz(t, map[string]testutil.File{})
	e, err := NewExtractor(ArchiveTypeTarGz)
	require.NoError(t, err)

	err = e.Extract(bytes.NewReader(data), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive is empty")
}

func TestExtractor_PathTraversal(t *testing.T) {
	t.Parallel()

	t.Run("tar", func(t *testing.T) {
		t.Parallel()

		data := testutil.TarGz(t, map[string]testutil.File{"../evil": {Body: "x"}})
		e, err := NewExtractor(ArchiveTypeTarGz)
		require.NoError(t, err)

		require.Error(t, e.Extract(bytes.NewReader(data), t.TempDir()))
	})

	t.Run("zip", func(t *testing.T) {
		t.Parallel()

		data := testutil.Zip(t, map[string]testutil.File{"../../evil": {Body: "x"}})
		e, err := NewExtractor(ArchiveTypeZip)
		require.NoError(t, err)

		require.Error(t, e.Extract(bytes.NewReader(data), t.TempDir()))
	})

	t.Run("symlink escaping", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		tw := tar.NewWriter(gw)
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "snailer",
			Typeflag: tar.TypeSymlink,
			Linkname: "../../../usr/bin/env",
		}))
		require.NoError(t, tw.Close())
		require.NoError(t, gw.Close())

		e, err := NewExtractor(ArchiveTypeTarGz)
		require.NoError(t, err)

		err = e.Extract(&buf, t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid symlink target")
	})
}

func TestExtractor_SymlinkChain(t *testing.T) {
	t.Parallel()

	type entry struct {
		name     string
		typeflag byte
		linkname string
		body     string
	}

	tests := []struct {
		name    string
		entries []entry
		wantErr string
	}{
		{
			name: "parent-relative links",
			entries: []entry{
				{name: "d/", typeflag: tar.TypeDir},
				{name: "d/l", typeflag: tar.TypeSymlink, linkname: ".."},
				{name: "d/l/l2", typeflag: tar.TypeSymlink, linkname: ".."},
				{name: "d/l/l2/escaped.txt", typeflag: tar.TypeReg, body: "pwned"},
			},
			wantErr: "invalid symlink target",
		},
		{
			name: "file written through earlier link",
			entries: []entry{
				{name: "sub/", typeflag: tar.TypeDir},
				{name: "link", typeflag: tar.TypeSymlink, linkname: "sub"},
				{name: "link/snailer", typeflag: tar.TypeReg, body: "bin"},
			},
			wantErr: "passes through symlink",
		},
		{
			name: "directory created through earlier link",
			entries: []entry{
				{name: "sub/", typeflag: tar.TypeDir},
				{name: "link", typeflag: tar.TypeSymlink, linkname: "sub"},
				{name: "link/nested/", typeflag: tar.TypeDir},
			},
			wantErr: "passes through symlink",
		},
		{
			name: "absolute link",
			entries: []entry{
				{name: "snailer", typeflag: tar.TypeSymlink, linkname: "/usr/bin/env"},
			},
			wantErr: "invalid symlink target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			gw := gzip.NewWriter(&buf)
			tw := tar.NewWriter(gw)
			for _, e := range tt.entries {
				hdr := &tar.Header{Name: e.name, Typeflag: e.typeflag, Linkname: e.linkname, Mode: 0755, Size: int64(len(e.body))}
				require.NoError(t, tw.WriteHeader(hdr))
				if e.body != "" {
					_, err := tw.Write([]byte(e.body))
					require.NoError(t, err)
				}
			}
			require.NoError(t, tw.Close())
			require.NoError(t, gw.Close())

			root := t.TempDir()
			destDir := filepath.Join(root, "dest", "extracted")
			require.NoError(t, os.MkdirAll(destDir, 0755))

			e, err := NewExtractor(ArchiveTypeTarGz)
			require.NoError(t, err)

			err = e.Extract(&buf, destDir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			assert.NoFileExists(t, filepath.Join(root, "dest", "escaped.txt"))
			assert.NoFileExists(t, filepath.Join(root, "escaped.txt"))
			assert.NoFileExists(t, filepath.Join(destDir, "sub", "snailer"))
		})
	}
}

func TestExtractor_SymlinkInsideDir(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "bin/snailer-real", Typeflag: tar.TypeReg, Mode: 0755, Size: 3}))
	_, err := tw.Write([]byte("bin"))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "bin/snailer", Typeflag: tar.TypeSymlink, Linkname: "snailer-real"}))
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	destDir := t.TempDir()
	e, err := NewExtractor(ArchiveTypeTarGz)
	require.NoError(t, err)
	require.NoError(t, e.Extract(&buf, destDir))

	link, err := os.Readlink(filepath.Join(destDir, "bin", "snailer"))
	require.NoError(t, err)
	assert.Equal(t, "snailer-real", link)
}

func TestIsSafeLinkname(t *testing.T) {
	t.Parallel()

	tests := []struct {
		linkname string
		want     bool
	}{
		{"snailer-real", true},
		{"lib/snailer", true},
		{"./snailer", true},
		{"..", false},
		{"../lib/snailer", false},
		{"lib/../../x", false},
		{"/usr/bin/env", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.linkname, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isSafeLinkname(tt.linkname))
		})
	}
}

func TestExtractor_Zip_SkipsMacOSMetadata(t *testing.T) {
	t.Parallel()

	data := testutil.Zip(t, map[string]testutil.File{
		"snailer.exe":            {Body: "MZ"},
		"__MACOSX/._snailer.exe": {Body: "meta"},
	})

	destDir := t.TempDir()
	e, err := NewExtractor(ArchiveTypeZip)
	require.NoError(t, err)
	require.NoError(t, e.Extract(bytes.NewReader(data), destDir))

	_, err = os.Stat(filepath.Join(destDir, "snailer.exe"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(destDir, "__MACOSX"))
	assert.True(t, os.IsNotExist(err))
}

type pureReader struct {
	r io.Reader
}

func (p *pureReader) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func TestExtractor_Zip_RequiresReaderAt(t *testing.T) {
	t.Parallel()

	data := testutil.Zip(t, map[string]testutil.File{"snailer.exe": {Body: "MZ"}})
	e, err := NewExtractor(ArchiveTypeZip)
	require.NoError(t, err)

	err = e.Extract(&pureReader{r: bytes.NewReader(data)}, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "io.ReaderAt")
}

func TestIsInsideDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join("/", "opt", "snailer")
	assert.True(t, isInsideDir(base, filepath.Join(base, "snailer")))
	assert.True(t, isInsideDir(base, filepath.Join(base, "a", "b")))
	assert.True(t, isInsideDir(base, filepath.Join(base, "..hidden")))
	assert.False(t, isInsideDir(base, filepath.Join(base, "..", "etc")))
	assert.False(t, isInsideDir(base, "/etc/passwd"))
}

package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snailerErrors "github.com/felixaihub/snailer-dist/internal/errors"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  Key
		want Triple
	}{
		{name: "macOS arm64", key: Key{OS: OSDarwin, Arch: ArchARM64}, want: "aarch64-apple-darwin"},
		{name: "macOS amd64", key: Key{OS: OSDarwin, Arch: ArchAMD64}, want: "x86_64-apple-darwin"},
		{name: "macOS other arch", key: Key{OS: OSDarwin, Arch: "ppc64"}, want: "x86_64-apple-darwin"},
		{name: "linux arm64", key: Key{OS: OSLinux, Arch: ArchARM64}, want: "aarch64-unknown-linux-musl"},
		{name: "linux amd64", key: Key{OS: OSLinux, Arch: ArchAMD64}, want: "x86_64-unknown-linux-musl"},
		{name: "linux other arch", key: Key{OS: OSLinux, Arch: "riscv64"}, want: "x86_64-unknown-linux-musl"},
		{name: "windows amd64", key: Key{OS: OSWindows, Arch: ArchAMD64}, want: "x86_64-pc-windows-msvc"},
		{name: "windows arm64", key: Key{OS: OSWindows, Arch: ArchARM64}, want: "x86_64-pc-windows-msvc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Unsupported(t *testing.T) {
	t.Parallel()

	tests := []Key{
		{OS: "freebsd", Arch: ArchAMD64},
		{OS: "openbsd", Arch: ArchARM64},
		{OS: "aix", Arch: "ppc64"},
		{OS: "", Arch: ""},
	}

	for _, key := range tests {
		t.Run(key.String(), func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(key)
			require.Error(t, err)
			assert.Empty(t, got)

			var platformErr *snailerErrors.PlatformError
			require.ErrorAs(t, err, &platformErr)
			assert.Equal(t, string(key.OS), platformErr.OS)
			assert.Equal(t, string(key.Arch), platformErr.Arch)
			assert.Contains(t, err.Error(), string(key.OS)+"/"+string(key.Arch))
		})
	}
}

func TestTriple_OS(t *testing.T) {
	t.Parallel()

	for _, triple := range All() {
		assert.NotEmpty(t, triple.OS(), "triple %s", triple)
	}
	assert.Equal(t, OSWindows, TripleWindowsAMD64.OS())
	assert.Empty(t, Triple("sparc-sun-solaris").OS())
}

func TestTriple_IsARM(t *testing.T) {
	t.Parallel()

	assert.True(t, TripleDarwinARM64.IsARM())
	assert.True(t, TripleLinuxARM64.IsARM())
	assert.False(t, TripleLinuxAMD64.IsARM())
	assert.False(t, TripleWindowsAMD64.IsARM())
}

func TestDetect(t *testing.T) {
	t.Parallel()

	key := Detect()
	assert.Equal(t, OS(runtime.GOOS), key.OS)
	assert.Equal(t, Arch(runtime.GOARCH), key.Arch)
}

func TestExecutableName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "snailer.exe", ExecutableName("snailer", OSWindows))
	assert.Equal(t, "snailer", ExecutableName("snailer", OSLinux))
	assert.Equal(t, "snailer", ExecutableName("snailer", OSDarwin))
}

func TestParseTriple(t *testing.T) {
	t.Parallel()

	for _, triple := range All() {
		got, err := ParseTriple(string(triple))
		require.NoError(t, err)
		assert.Equal(t, triple, got)
	}

	_, err := ParseTriple("riscv64-unknown-linux-gnu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown triple "riscv64-unknown-linux-gnu"`)
	assert.Contains(t, err.Error(), string(TripleLinuxAMD64))
}

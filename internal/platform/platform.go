// Package platform maps the host operating system and CPU architecture to the
// target triple used to name snailer release assets.
package platform

import (
	"fmt"
	"runtime"
	"strings"

	snailerErrors "github.com/felixaihub/snailer-dist/internal/errors"
)

// OS is an operating system identifier as reported by runtime.GOOS.
type OS string

const (
	OSDarwin  OS = "darwin"
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
)

// Arch is a CPU architecture identifier as reported by runtime.GOARCH.
type Arch string

const (
	ArchAMD64 Arch = "amd64"
	ArchARM64 Arch = "arm64"
)

// Key identifies a host platform.
type Key struct {
	OS   OS   `json:"os"`
	Arch Arch `json:"arch"`
}

func (k Key) String() string {
	return string(k.OS) + "/" + string(k.Arch)
}

// IsWindows reports whether the key describes a Windows host.
func (k Key) IsWindows() bool {
	return k.OS == OSWindows
}

// Triple is a release target triple such as x86_64-unknown-linux-musl.
type Triple string

const (
	TripleDarwinARM64  Triple = "aarch64-apple-darwin"
	TripleDarwinAMD64  Triple = "x86_64-apple-darwin"
	TripleLinuxARM64   Triple = "aarch64-unknown-linux-musl"
	TripleLinuxAMD64   Triple = "x86_64-unknown-linux-musl"
	TripleWindowsAMD64 Triple = "x86_64-pc-windows-msvc"
)

// All returns every triple a release may publish, in a stable order.
func All() []Triple {
	return []Triple{
		TripleDarwinARM64,
		TripleDarwinAMD64,
		TripleLinuxARM64,
		TripleLinuxAMD64,
		TripleWindowsAMD64,
	}
}

// ParseTriple returns s as a Triple if it is one of All().
func ParseTriple(s string) (Triple, error) {
	for _, t := range All() {
		if string(t) == s {
			return t, nil
		}
	}
	names := make([]string, 0, len(All()))
	for _, t := range All() {
		names = append(names, string(t))
	}
	return "", fmt.Errorf("unknown triple %q (expected one of %s)", s, strings.Join(names, ", "))
}

// OS returns the operating system family the triple targets.
func (t Triple) OS() OS {
	switch t {
	case TripleDarwinARM64, TripleDarwinAMD64:
		return OSDarwin
	case TripleLinuxARM64, TripleLinuxAMD64:
		return OSLinux
	case TripleWindowsAMD64:
		return OSWindows
	default:
		return ""
	}
}

// IsARM reports whether the triple targets a 64-bit ARM CPU.
func (t Triple) IsARM() bool {
	return t == TripleDarwinARM64 || t == TripleLinuxARM64
}

// Detect returns the Key of the running process.
func Detect() Key {
	return Key{OS: OS(runtime.GOOS), Arch: Arch(runtime.GOARCH)}
}

// Resolve maps a platform key to its target triple.
// Any architecture other than arm64 maps to the x86_64 build on macOS and
// Linux, and Windows always maps to the x86_64 build. Other operating
// systems return a *errors.PlatformError.
func Resolve(key Key) (Triple, error) {
	switch key.OS {
	case OSDarwin:
		if key.Arch == ArchARM64 {
			return TripleDarwinARM64, nil
		}
		return TripleDarwinAMD64, nil
	case OSLinux:
		if key.Arch == ArchARM64 {
			return TripleLinuxARM64, nil
		}
		return TripleLinuxAMD64, nil
	case OSWindows:
		return TripleWindowsAMD64, nil
	default:
		return "", snailerErrors.NewPlatformError(string(key.OS), string(key.Arch))
	}
}

// ExecutableName appends the platform executable suffix to name.
func ExecutableName(name string, goos OS) string {
	if goos == OSWindows {
		return name + ".exe"
	}
	return name
}

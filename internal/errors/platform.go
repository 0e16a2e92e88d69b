//nolint:revive // Package name intentionally shadows stdlib errors for convenience.
package errors

import "fmt"

// PlatformError reports a host OS/architecture pairing with no release asset.
type PlatformError struct {
	Base Error `json:"error"`

	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// NewPlatformError creates a PlatformError for the given pairing.
func NewPlatformError(goos, goarch string) *PlatformError {
	return &PlatformError{
		Base: Error{
			Category: CategoryPlatform,
			Code:     CodeUnsupportedPlatform,
			Message:  fmt.Sprintf("Unsupported platform %s/%s", goos, goarch),
			Hint:     "Prebuilt binaries exist for macOS (arm64, x86_64), Linux (arm64, x86_64)\nand Windows (x86_64). Build snailer from source on other hosts.",
		},
		OS:   goos,
		Arch: goarch,
	}
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	return e.Base.Error()
}

// Unwrap returns the underlying error.
func (e *PlatformError) Unwrap() error {
	return e.Base.Cause
}

// Is reports whether the target error matches this error by code.
func (e *PlatformError) Is(target error) bool {
	t, ok := target.(*PlatformError)
	if !ok {
		return false
	}
	return e.Base.Code == t.Base.Code
}

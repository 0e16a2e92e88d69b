//nolint:revive // Package name intentionally shadows stdlib errors for convenience.
package errors

// LaunchError represents a failure to start the installed binary.
type LaunchError struct {
	Base Error `json:"error"`

	// Path is the expected location of the binary.
	Path string `json:"path,omitempty"`
}

// NewBinaryMissingError creates a LaunchError for an absent binary.
func NewBinaryMissingError(path string) *LaunchError {
	return &LaunchError{
		Base: Error{
			Category: CategoryLaunch,
			Code:     CodeBinaryMissing,
			Message:  "Binary is missing. Reinstall or download from Releases.",
			Hint:     "Run 'snailer-dist install' or reinstall the package.",
		},
		Path: path,
	}
}

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return e.Base.Error()
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Base.Cause
}

// Is reports whether the target error matches this error by code.
func (e *LaunchError) Is(target error) bool {
	t, ok := target.(*LaunchError)
	if !ok {
		return false
	}
	return e.Base.Code == t.Base.Code
}

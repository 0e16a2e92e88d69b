//nolint:revive // Package name intentionally shadows stdlib errors for convenience.
package errors

import "fmt"

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Base Error `json:"error"`

	// Key is the configuration key (e.g., "version").
	Key string `json:"key,omitempty"`

	// Value is the rejected value.
	Value string `json:"value,omitempty"`

	// Env is the environment variable the value came from, if any.
	Env string `json:"env,omitempty"`
}

// NewConfigError creates a ConfigError for key=value.
func NewConfigError(key, value string, cause error) *ConfigError {
	return &ConfigError{
		Base: Error{
			Category: CategoryConfig,
			Code:     CodeInvalidConfig,
			Message:  fmt.Sprintf("invalid %s %q", key, value),
			Cause:    cause,
		},
		Key:   key,
		Value: value,
	}
}

// WithEnv records the environment variable that supplied the value.
func (e *ConfigError) WithEnv(env string) *ConfigError {
	e.Env = env
	e.Base.Hint = fmt.Sprintf("Unset %s or set it to a valid value.", env)
	return e
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return e.Base.Error()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Base.Cause
}

// Is reports whether the target error matches this error by code.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return e.Base.Code == t.Base.Code
}

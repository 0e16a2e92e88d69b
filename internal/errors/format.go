//nolint:revive // Package name intentionally shadows stdlib errors for convenience.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Formatter formats errors for CLI output.
type Formatter struct {
	NoColor bool
	Writer  io.Writer

	errorColor    *color.Color
	codeColor     *color.Color
	resourceColor *color.Color
	hintColor     *color.Color
	expectedColor *color.Color
	gotColor      *color.Color
	dimColor      *color.Color
}

// NewFormatter creates a new Formatter.
func NewFormatter(w io.Writer, noColor bool) *Formatter {
	if noColor {
		color.NoColor = true
	}

	return &Formatter{
		NoColor:       noColor,
		Writer:        w,
		errorColor:    color.New(color.FgRed, color.Bold),
		codeColor:     color.New(color.FgRed),
		resourceColor: color.New(color.FgCyan),
		hintColor:     color.New(color.FgGreen),
		expectedColor: color.New(color.FgYellow),
		gotColor:      color.New(color.FgRed),
		dimColor:      color.New(color.FgHiBlack),
	}
}

// Print writes the formatted error to the formatter's writer.
func (f *Formatter) Print(err error) {
	if err == nil || f.Writer == nil {
		return
	}
	_, _ = io.WriteString(f.Writer, f.Format(err))
}

// formatErrorHeader writes the error header with code.
// Format: "Error [E301]: message" or "Error: message" if no code.
func (f *Formatter) formatErrorHeader(sb *strings.Builder, code Code, message string) {
	sb.WriteString(f.errorColor.Sprint("Error"))
	if code != "" {
		sb.WriteString(" ")
		sb.WriteString(f.codeColor.Sprintf("[%s]", code))
	}
	sb.WriteString(f.errorColor.Sprint(": "))
	sb.WriteString(message)
	sb.WriteString("\n")
}

// Format formats an error for CLI display.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	var platformErr *PlatformError
	var configErr *ConfigError
	var checksumErr *ChecksumError
	var installErr *InstallError
	var networkErr *NetworkError
	var launchErr *LaunchError
	var baseErr *Error

	// InstallError is matched before its causes so the manual URL is always shown.
	switch {
	case errors.As(err, &platformErr):
		f.formatPlatformError(&sb, platformErr)
	case errors.As(err, &configErr):
		f.formatConfigError(&sb, configErr)
	case errors.As(err, &installErr):
		f.formatInstallError(&sb, installErr)
	case errors.As(err, &checksumErr):
		f.formatChecksumError(&sb, checksumErr)
	case errors.As(err, &networkErr):
		f.formatNetworkError(&sb, networkErr)
	case errors.As(err, &launchErr):
		f.formatLaunchError(&sb, launchErr)
	case errors.As(err, &baseErr):
		f.formatBaseError(&sb, baseErr)
	default:
		sb.WriteString(f.errorColor.Sprint("Error: "))
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatJSON formats an error as JSON.
func (f *Formatter) FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return nil, nil
	}

	var platformErr *PlatformError
	var configErr *ConfigError
	var checksumErr *ChecksumError
	var installErr *InstallError
	var networkErr *NetworkError
	var launchErr *LaunchError
	var baseErr *Error

	switch {
	case errors.As(err, &platformErr):
		return json.MarshalIndent(platformErr, "", "  ")
	case errors.As(err, &configErr):
		return json.MarshalIndent(configErr, "", "  ")
	case errors.As(err, &installErr):
		return json.MarshalIndent(installErr, "", "  ")
	case errors.As(err, &checksumErr):
		return json.MarshalIndent(checksumErr, "", "  ")
	case errors.As(err, &networkErr):
		return json.MarshalIndent(networkErr, "", "  ")
	case errors.As(err, &launchErr):
		return json.MarshalIndent(launchErr, "", "  ")
	case errors.As(err, &baseErr):
		return json.MarshalIndent(baseErr, "", "  ")
	default:
		return json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
	}
}

func (f *Formatter) field(sb *strings.Builder, label, value string, c *color.Color) {
	if value == "" {
		return
	}
	sb.WriteString("  ")
	sb.WriteString(f.dimColor.Sprint(label))
	if c != nil {
		sb.WriteString(c.Sprint(value))
	} else {
		sb.WriteString(value)
	}
	sb.WriteString("\n")
}

func (f *Formatter) cause(sb *strings.Builder, cause error) {
	if cause == nil {
		return
	}
	sb.WriteString("\n  ")
	sb.WriteString(f.dimColor.Sprint("Cause: "))
	sb.WriteString(cause.Error())
	sb.WriteString("\n")
}

func (f *Formatter) formatPlatformError(sb *strings.Builder, err *PlatformError) {
	f.formatErrorHeader(sb, err.Base.Code, err.Base.Message)
	sb.WriteString("\n")
	f.field(sb, "OS:   ", err.OS, f.gotColor)
	f.field(sb, "Arch: ", err.Arch, f.gotColor)
	f.formatHint(sb, &err.Base)
}

func (f *Formatter) formatConfigError(sb *strings.Builder, err *ConfigError) {
	f.formatErrorHeader(sb, err.Base.Code, err.Base.Message)
	sb.WriteString("\n")
	f.field(sb, "Key:   ", err.Key, f.resourceColor)
	f.field(sb, "Env:   ", err.Env, f.resourceColor)
	f.field(sb, "Value: ", err.Value, f.gotColor)
	f.cause(sb, err.Base.Cause)
	f.formatHint(sb, &err.Base)
}

func (f *Formatter) formatInstallError(sb *strings.Builder, err *InstallError) {
	f.formatErrorHeader(sb, err.Base.Code, err.Base.Message)
	sb.WriteString("\n")
	f.field(sb, "Resource: ", err.Resource, f.resourceColor)
	f.field(sb, "Version:  ", err.Version, nil)
	f.field(sb, "Step:     ", err.Action, nil)
	f.field(sb, "URL:      ", err.URL, nil)

	var checksumErr *ChecksumError
	if errors.As(err.Base.Cause, &checksumErr) {
		sb.WriteString("\n")
		f.field(sb, "Expected: ", checksumErr.Expected, f.expectedColor)
		f.field(sb, "Got:      ", checksumErr.Got, f.gotColor)
	} else {
		f.cause(sb, err.Base.Cause)
	}

	f.formatHint(sb, &err.Base)
}

func (f *Formatter) formatChecksumError(sb *strings.Builder, err *ChecksumError) {
	f.formatErrorHeader(sb, err.Base.Code, err.Base.Message)
	sb.WriteString("\n")
	f.field(sb, "Resource: ", err.Resource, f.resourceColor)
	f.field(sb, "URL:      ", err.URL, nil)
	sb.WriteString("\n")
	f.field(sb, "Expected: ", err.Expected, f.expectedColor)
	f.field(sb, "Got:      ", err.Got, f.gotColor)
	f.formatHint(sb, &err.Base)
}

func (f *Formatter) formatNetworkError(sb *strings.Builder, err *NetworkError) {
	f.formatErrorHeader(sb, err.Base.Code, err.Base.Message)
	sb.WriteString("\n")
	f.field(sb, "URL:    ", err.URL, nil)
	if err.StatusCode > 0 {
		f.field(sb, "Status: ", fmt.Sprintf("%d", err.StatusCode), f.gotColor)
	}
	f.cause(sb, err.Base.Cause)
	f.formatHint(sb, &err.Base)
}

func (f *Formatter) formatLaunchError(sb *strings.Builder, err *LaunchError) {
	f.formatErrorHeader(sb, err.Base.Code, err.Base.Message)
	sb.WriteString("\n")
	f.field(sb, "Path: ", err.Path, f.resourceColor)
	f.cause(sb, err.Base.Cause)
	f.formatHint(sb, &err.Base)
}

func (f *Formatter) formatBaseError(sb *strings.Builder, err *Error) {
	f.formatErrorHeader(sb, err.Code, err.Message)
	f.cause(sb, err.Cause)
	f.formatHint(sb, err)
}

func (f *Formatter) formatHint(sb *strings.Builder, err *Error) {
	if err.Hint == "" {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(f.hintColor.Sprint("Hint: "))
	lines := strings.Split(err.Hint, "\n")
	sb.WriteString(lines[0])
	sb.WriteString("\n")
	for _, line := range lines[1:] {
		sb.WriteString("      ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// Package config resolves installer settings from SNAILER_* environment
// variables, an optional YAML file, and command-line flags.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"

	"github.com/felixaihub/snailer-dist/internal/checksum"
	snailerErrors "github.com/felixaihub/snailer-dist/internal/errors"
	"github.com/felixaihub/snailer-dist/internal/release"
)

// EnvPrefix is prepended to every setting's environment variable.
const EnvPrefix = "SNAILER"

// VersionLatest asks the installer to resolve the newest published release.
const VersionLatest = "latest"

// Setting keys. Each maps to SNAILER_<KEY> in the environment.
const (
	KeySkipPostinstall = "skip_postinstall"
	KeyOrg             = "org"
	KeyRepo            = "repo"
	KeyName            = "name"
	KeyVersion         = "version"
	KeyInstallDir      = "install_dir"
	KeyBaseURL         = "base_url"
	KeySHA256          = "sha256"
	KeyManifest        = "manifest"
	KeyRequireChecksum = "require_checksum"
	KeyGitHubToken     = "github_token"
)

// Config holds the resolved installer settings.
type Config struct {
	SkipPostinstall string `mapstructure:"skip_postinstall" yaml:"skip_postinstall"`
	Org             string `mapstructure:"org" yaml:"org"`
	Repo            string `mapstructure:"repo" yaml:"repo"`
	Name            string `mapstructure:"name" yaml:"name"`
	Version         string `mapstructure:"version" yaml:"version"`
	InstallDir      string `mapstructure:"install_dir" yaml:"install_dir"`
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	SHA256          string `mapstructure:"sha256" yaml:"sha256"`
	Manifest        string `mapstructure:"manifest" yaml:"manifest"`
	RequireChecksum bool   `mapstructure:"require_checksum" yaml:"require_checksum"`
	GitHubToken     string `mapstructure:"github_token" yaml:"-"`
}

// Skip reports whether SNAILER_SKIP_POSTINSTALL is exactly "1".
func (c *Config) Skip() bool {
	return c.SkipPostinstall == "1"
}

// IsLatest reports whether the version must be resolved from the release API.
func (c *Config) IsLatest() bool {
	return strings.EqualFold(c.Version, VersionLatest)
}

// Coordinates returns the release coordinates described by the config.
func (c *Config) Coordinates() release.Coordinates {
	return release.Coordinates{
		Org:     c.Org,
		Repo:    c.Repo,
		Name:    c.Name,
		Version: c.Version,
	}.Normalize()
}

// Loader builds Config values from a private viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader whose default version is buildVersion.
// An empty or "dev" build version falls back to release.FallbackVersion.
func NewLoader(buildVersion string) *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	defaultVersion := buildVersion
	if defaultVersion == "" || defaultVersion == "dev" {
		defaultVersion = release.FallbackVersion
	}

	v.SetDefault(KeySkipPostinstall, "")
	v.SetDefault(KeyOrg, release.DefaultOrg)
	v.SetDefault(KeyRepo, release.DefaultRepo)
	v.SetDefault(KeyName, release.DefaultName)
	v.SetDefault(KeyVersion, defaultVersion)
	v.SetDefault(KeyInstallDir, "")
	v.SetDefault(KeyBaseURL, release.DefaultBaseURL)
	v.SetDefault(KeySHA256, "")
	v.SetDefault(KeyManifest, "")
	v.SetDefault(KeyRequireChecksum, false)
	v.SetDefault(KeyGitHubToken, "")

	// npm exports the package version to lifecycle scripts.
	_ = v.BindEnv(KeyVersion, EnvName(KeyVersion), "npm_package_version")
	_ = v.BindEnv(KeyGitHubToken, "GITHUB_TOKEN", "GH_TOKEN")

	return &Loader{v: v}
}

// SkipRequested reports whether SNAILER_SKIP_POSTINSTALL is exactly "1"
// without reading or validating any other setting.
func (l *Loader) SkipRequested() bool {
	return l.v.GetString(KeySkipPostinstall) == "1"
}

// Viper exposes the underlying instance so callers can bind flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load resolves the configuration. A non-empty path names a YAML file
// whose values sit between defaults and the environment in precedence.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load is shorthand for NewLoader(buildVersion).Load("").
func Load(buildVersion string) (*Config, error) {
	return NewLoader(buildVersion).Load("")
}

func (c *Config) normalize() error {
	c.Org = strings.TrimSpace(c.Org)
	c.Repo = strings.TrimSpace(c.Repo)
	c.Name = strings.TrimSpace(c.Name)
	c.Version = strings.TrimSpace(c.Version)
	c.SHA256 = strings.TrimSpace(c.SHA256)

	segments := []struct {
		key   string
		value string
	}{
		{KeyOrg, c.Org},
		{KeyRepo, c.Repo},
		{KeyName, c.Name},
	}
	for _, seg := range segments {
		if seg.value == "" || strings.ContainsAny(seg.value, "/ \t") {
			return snailerErrors.NewConfigError(seg.key, seg.value, fmt.Errorf("must be a non-empty path segment")).
				WithEnv(EnvName(seg.key))
		}
	}

	if !c.IsLatest() {
		version, err := NormalizeVersion(c.Version)
		if err != nil {
			return snailerErrors.NewConfigError(KeyVersion, c.Version, err).WithEnv(EnvName(KeyVersion))
		}
		c.Version = version
	} else {
		c.Version = VersionLatest
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("expected an http(s) URL")
		}
		return snailerErrors.NewConfigError(KeyBaseURL, c.BaseURL, err).WithEnv(EnvName(KeyBaseURL))
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.SHA256 != "" {
		if _, _, err := checksum.Parse(c.SHA256); err != nil {
			return snailerErrors.NewConfigError(KeySHA256, c.SHA256, err).WithEnv(EnvName(KeySHA256))
		}
	}

	return nil
}

// NormalizeVersion validates version as semver and returns it as a tag
// with exactly one leading "v".
func NormalizeVersion(version string) (string, error) {
	tag := release.NormalizeVersion(version)
	if tag == "" {
		return "", fmt.Errorf("version is empty")
	}
	if _, err := semver.StrictNewVersion(strings.TrimPrefix(tag, "v")); err != nil {
		return "", fmt.Errorf("invalid semantic version %q: %w", version, err)
	}
	return tag, nil
}

// EnvName returns the environment variable for key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

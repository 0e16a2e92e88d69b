// Package formula renders the Homebrew formula for a manifest release.
package formula

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"
	"unicode"

	"github.com/felixaihub/snailer-dist/internal/manifest"
	"github.com/felixaihub/snailer-dist/internal/platform"
	"github.com/felixaihub/snailer-dist/internal/release"
)

//go:embed templates/formula.rb.tmpl
var formulaTmpl string

var tmpl = template.Must(template.New("formula").Parse(formulaTmpl))

// Defaults for Options.
const (
	DefaultDesc    = "AI-powered development CLI"
	DefaultEULAURL = "https://github.com/felixaihub/snailer-cli/blob/main/EULA.md"
)

// Options customizes the rendered formula.
type Options struct {
	BaseURL  string
	Desc     string
	Homepage string
	EULAURL  string
}

type asset struct {
	URL    string
	SHA256 string
}

type osBlock struct {
	Name  string
	ARM   *asset
	Intel *asset
}

func (b osBlock) Any() bool {
	return b.ARM != nil || b.Intel != nil
}

type formulaData struct {
	ClassName string
	Desc      string
	Homepage  string
	Version   string
	Binary    string
	EULAURL   string
	MacOS     osBlock
	Linux     osBlock
}

// Render writes the formula for r to w. Triples without a recorded digest
// are left out; a release lacking every macOS or every Linux archive is an error.
func Render(w io.Writer, r manifest.Release, opts Options) error {
	coords := r.Coordinates()

	if opts.BaseURL == "" {
		opts.BaseURL = release.DefaultBaseURL
	}
	if opts.Desc == "" {
		opts.Desc = DefaultDesc
	}
	if opts.Homepage == "" {
		opts.Homepage = fmt.Sprintf("%s/%s/%s", strings.TrimRight(opts.BaseURL, "/"), coords.Org, coords.Repo)
	}
	if opts.EULAURL == "" {
		opts.EULAURL = DefaultEULAURL
	}

	data := formulaData{
		ClassName: ClassName(coords.Name),
		Desc:      opts.Desc,
		Homepage:  opts.Homepage,
		Version:   coords.Bare(),
		Binary:    coords.Name,
		EULAURL:   opts.EULAURL,
		MacOS: osBlock{
			Name:  "macos",
			ARM:   assetFor(opts.BaseURL, r, platform.TripleDarwinARM64),
			Intel: assetFor(opts.BaseURL, r, platform.TripleDarwinAMD64),
		},
		Linux: osBlock{
			Name:  "linux",
			ARM:   assetFor(opts.BaseURL, r, platform.TripleLinuxARM64),
			Intel: assetFor(opts.BaseURL, r, platform.TripleLinuxAMD64),
		},
	}

	if !data.MacOS.Any() {
		return fmt.Errorf("release %s has no macOS archive digest", coords)
	}
	if !data.Linux.Any() {
		return fmt.Errorf("release %s has no Linux archive digest", coords)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render formula: %w", err)
	}
	return nil
}

func assetFor(baseURL string, r manifest.Release, triple platform.Triple) *asset {
	expected, ok := r.Checksum(triple)
	if !ok {
		return nil
	}
	a := release.LocateFor(baseURL, r.Coordinates(), triple, release.PublishedKind(triple))
	return &asset{URL: a.URL, SHA256: string(expected.Digest)}
}

// ClassName converts a formula name to its Ruby class name
// ("snailer" -> "Snailer", "snailer-beta" -> "SnailerBeta").
func ClassName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '-' || r == '_' || r == '.' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

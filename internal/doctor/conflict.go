package doctor

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/felixaihub/snailer-dist/internal/platform"
)

// executableBits is the Unix permission bitmask for executable files (owner/group/other execute).
const executableBits os.FileMode = 0111

// detectConflict finds shims that exist in more than one PATH directory.
// The first match is the one the shell runs.
func (d *Doctor) detectConflict() (*Conflict, error) {
	name := platform.ExecutableName(d.shimName, d.goos)

	var locations []string
	for _, dir := range filepath.SplitList(d.pathEnv) {
		if dir == "" || slices.Contains(locations, dir) {
			continue
		}

		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) || os.IsPermission(err) {
				continue
			}
			return nil, err
		}

		if info.IsDir() {
			continue
		}

		if d.goos != platform.OSWindows && info.Mode()&executableBits == 0 {
			continue
		}

		locations = append(locations, dir)
	}

	if len(locations) < 2 {
		return nil, nil
	}

	return &Conflict{
		Name:       name,
		Locations:  locations,
		ResolvedTo: filepath.Join(locations[0], name),
	}, nil
}

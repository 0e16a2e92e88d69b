package checksum

import (
	"bufio"
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// bsdLine matches "SHA256 (snailer-v0.1.12-x86_64-unknown-linux-musl.tar.gz) = <hex>".
var bsdLine = regexp.MustCompile(`^(SHA256|SHA512)\s+\((.+)\)\s+=\s+([a-fA-F0-9]+)$`)

// ParseFile extracts the digest for filename from a checksum document.
//
// Three layouts are accepted:
//   - a sidecar holding a single bare digest, optionally followed by a filename
//   - GNU coreutils lines: "<hex>  <file>" or "<hex> *<file>"
//   - BSD tagged lines: "SHA256 (<file>) = <hex>"
//
// A sidecar with one bare digest matches any filename.
func ParseFile(content []byte, filename string) (Expected, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Expected{}, fmt.Errorf("failed to read checksum file: %w", err)
	}
	if len(lines) == 0 {
		return Expected{}, fmt.Errorf("checksum file is empty")
	}

	if len(lines) == 1 && !strings.ContainsAny(lines[0], " \t") {
		return expectedFrom("", lines[0])
	}

	for _, line := range lines {
		if m := bsdLine.FindStringSubmatch(line); m != nil {
			if sameFile(m[2], filename) {
				return expectedFrom(strings.ToLower(m[1]), m[3])
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if sameFile(strings.TrimPrefix(fields[1], "*"), filename) {
			return expectedFrom("", fields[0])
		}
	}

	return Expected{}, fmt.Errorf("checksum for %q not found", filename)
}

func expectedFrom(algorithm, hexDigest string) (Expected, error) {
	value := hexDigest
	if algorithm != "" {
		value = algorithm + ":" + hexDigest
	}
	alg, digest, err := Parse(value)
	if err != nil {
		return Expected{}, err
	}
	return Expected{Algorithm: alg, Digest: digest}, nil
}

func sameFile(listed, want string) bool {
	return listed == want || path.Base(listed) == want
}

func isHexString(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

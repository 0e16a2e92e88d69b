// Package checksum computes and verifies content digests of release assets.
package checksum

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	snailerErrors "github.com/felixaihub/snailer-dist/internal/errors"
)

// Algorithm represents a checksum hash algorithm.
type Algorithm string

const (
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA512 Algorithm = "sha512"
)

// Digest is a lowercase hex-encoded hash value.
type Digest string

// Expected is a digest together with the algorithm that produced it.
type Expected struct {
	Algorithm Algorithm
	Digest    Digest
	// Source names where the digest came from (env, manifest, sidecar).
	Source string
}

// IsZero reports whether no digest is known.
func (e Expected) IsZero() bool {
	return e.Digest == ""
}

// Parse parses a checksum value in format "algorithm:hash" or a bare hex hash.
// The algorithm of a bare hash is detected from its length.
func Parse(value string) (Algorithm, Digest, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", fmt.Errorf("empty checksum")
	}

	algorithm, hashValue, found := strings.Cut(value, ":")
	if !found {
		hashValue = value
		algorithm = string(DetectAlgorithm(value))
		if algorithm == "" {
			return "", "", fmt.Errorf("invalid checksum %q: expected 'algorithm:hash' or a sha256/sha512 hex digest", value)
		}
	}

	switch Algorithm(algorithm) {
	case AlgorithmSHA256, AlgorithmSHA512:
	default:
		return "", "", fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}

	if !isHexString(hashValue) {
		return "", "", fmt.Errorf("invalid checksum %q: not a hex digest", value)
	}

	return Algorithm(algorithm), Digest(strings.ToLower(hashValue)), nil
}

// Calculate calculates the checksum of a file using the given algorithm.
func Calculate(filePath string, algorithm Algorithm) (Digest, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return CalculateFromReader(f, algorithm)
}

// CalculateFromReader calculates the checksum from a reader using the given algorithm.
func CalculateFromReader(r io.Reader, algorithm Algorithm) (Digest, error) {
	h, err := NewHash(algorithm)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to read data: %w", err)
	}

	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// Verify checks filePath against the expected digest.
// A mismatch is reported as *errors.ChecksumError.
func Verify(filePath string, expected Expected) error {
	actual, err := Calculate(filePath, expected.Algorithm)
	if err != nil {
		return err
	}

	if !strings.EqualFold(string(actual), string(expected.Digest)) {
		return snailerErrors.NewChecksumError(filepath.Base(filePath), "", string(expected.Digest), string(actual))
	}

	return nil
}

// DetectAlgorithm detects the hash algorithm from the hash length.
func DetectAlgorithm(hashValue string) Algorithm {
	switch len(hashValue) {
	case 64:
		return AlgorithmSHA256
	case 128:
		return AlgorithmSHA512
	default:
		return ""
	}
}

// NewHash returns a new hash.Hash for the given algorithm.
func NewHash(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case AlgorithmSHA256:
		return sha256.New(), nil
	case AlgorithmSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}

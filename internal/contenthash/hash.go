// Package contenthash computes deterministic content identities.
//
// All digests are lowercase hex SHA-256 with no salt, so they are stable
// across process restarts and usable as persistent keys.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Bytes returns the digest of raw file content. Used for whole-document dedup.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Text returns the digest of UTF-8 text. Two files that extract to the
// same text share this digest even when their bytes differ.
func Text(text string) string {
	return Bytes([]byte(text))
}

// Chunk returns the identity of a chunk. It covers the owning document and
// the chunk position, so identical text in different places hashes differently.
func Chunk(documentID int64, index int, text string) string {
	return Text(fmt.Sprintf("%d:%d:%s", documentID, index, text))
}

// File streams the file at path through the byte digest.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

package classify

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxProofBytes caps the size of a proof file sent to a remote strategy.
const DefaultMaxProofBytes int64 = 5 << 20

// Proof loading errors.
var (
	ErrProofDisabled    = errors.New("classify: no proof root configured")
	ErrProofOutsideRoot = errors.New("classify: proof path escapes the upload root")
	ErrProofNotRegular  = errors.New("classify: proof is not a regular file")
	ErrProofTooLarge    = errors.New("classify: proof exceeds size limit")
)

// proofLoader reads proof attachments confined to a single directory.
type proofLoader struct {
	root     string
	maxBytes int64
}

// resolve maps path onto the root. Relative paths are joined to the root;
// absolute paths must already lie inside it. Symlinks are resolved before
// the containment check.
func (l proofLoader) resolve(path string) (string, error) {
	if l.root == "" {
		return "", ErrProofDisabled
	}
	root, err := filepath.Abs(l.root)
	if err != nil {
		return "", fmt.Errorf("proof root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	candidate, err = filepath.EvalSymlinks(filepath.Clean(candidate))
	if err != nil {
		return "", fmt.Errorf("proof path: %w", err)
	}

	rel, err := filepath.Rel(root, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrProofOutsideRoot, path)
	}
	return candidate, nil
}

// encode returns the base64 contents of the proof at path.
func (l proofLoader) encode(path string) (string, error) {
	full, err := l.resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(full)
	if err != nil {
		return "", fmt.Errorf("proof stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrProofNotRegular, info.Mode().Type())
	}
	if info.Size() > l.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrProofTooLarge, info.Size())
	}

	f, err := os.Open(full)
	if err != nil {
		return "", fmt.Errorf("proof open: %w", err)
	}
	defer f.Close()

	// The file may grow between Lstat and Read.
	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("proof read: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrProofTooLarge, l.maxBytes)
	}
	if len(data) == 0 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

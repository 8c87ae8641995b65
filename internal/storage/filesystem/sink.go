// Package filesystem stores downloaded documents in a local directory.
package filesystem

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// Sink writes documents into Dir.
//
// Bytes are staged in a temporary file next to the destination and renamed
// into place, so a document is either complete or absent. The staging file is
// removed on every path.
type Sink struct {
	dir string
}

// NewSink creates a Sink writing into dir, creating it if needed.
func NewSink(dir string) (*Sink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output dir %s", dir)
	}
	return &Sink{dir: dir}, nil
}

// Save writes doc as name and returns the file path.
func (s *Sink) Save(ctx context.Context, name string, doc []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", errors.Errorf("invalid document name %q", name)
	}

	tmp, err := os.CreateTemp(s.dir, ".pi-*.part")
	if err != nil {
		return "", errors.Wrap(err, "create staging file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		return "", errors.Wrap(err, "write document")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "close staging file")
	}

	dst := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", errors.Wrap(err, "move document into place")
	}
	return dst, nil
}

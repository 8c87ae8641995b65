// Package logo loads the image embedded in generated documents.
package logo

import (
	"encoding/base64"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
)

// DefaultPath is where the logo lives relative to the working directory.
const DefaultPath = "public/logo.png"

// ErrNotImage is returned when the file content is not an image.
var ErrNotImage = errors.New("logo is not an image")

// LoadDataURL reads the image at path and returns it as a base64 data URL.
func LoadDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read logo")
	}
	return DataURL(data)
}

// DataURL encodes data as a data URL, using the sniffed MIME type.
func DataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.Wrap(ErrNotImage, "empty file")
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", errors.Wrapf(ErrNotImage, "detected %s", mt.String())
	}

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mt.String()) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mt.String())
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), nil
}

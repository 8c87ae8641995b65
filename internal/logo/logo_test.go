package logo

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngSignature is enough for MIME detection.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestLoadDataURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, pngSignature, 0o644))

	got, err := LoadDataURL(path)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngSignature), got)
}

func TestLoadDataURL_Missing(t *testing.T) {
	_, err := LoadDataURL(filepath.Join(t.TempDir(), "absent.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDataURL_RejectsNonImages(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("just some text\n")},
		{"pdf", []byte("%PDF-1.7\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DataURL(tt.data)
			require.ErrorIs(t, err, ErrNotImage)
		})
	}
}

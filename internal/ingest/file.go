package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/showcasekit/showcase-extractor/constants"
	"github.com/showcasekit/showcase-extractor/internal/common"
)

// File is one document handed to a batch run: a name, a MIME type, and an
// explicit read operation returning bytes or a read failure.
type File struct {
	Name     string
	MIMEType string
	Open     func(ctx context.Context) ([]byte, error)
}

// FromBytes wraps already-read content (e.g. a multipart upload) as a File.
func FromBytes(name, mimeType string, data []byte) File {
	return File{
		Name:     name,
		MIMEType: mimeType,
		Open: func(context.Context) ([]byte, error) {
			return data, nil
		},
	}
}

// FromPath builds a lazily-read File for a path with an allowed extension.
func FromPath(path string) (File, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	mimeType := constants.MIMEForExt(ext)
	if mimeType == "" {
		return File{}, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("unsupported file extension %q", ext), common.ErrInvalidInput)
	}
	return File{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Open: func(context.Context) ([]byte, error) {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, common.NewAppError("READ_FAILED",
					fmt.Sprintf("read %s: %v", path, err), common.ErrReadFailure)
			}
			return b, nil
		},
	}, nil
}

// Package upload converts multipart file uploads into data URIs the
// completion backends accept as image parts.
package upload

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fitcheck/fitcheck/internal/apperr"
)

// maxParallel bounds concurrent file reads per request.
const maxParallel = 4

// DataURI encodes data as a base64 data URI. An empty contentType is
// sniffed from the content.
func DataURI(contentType string, data []byte) string {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// EncodeFiles reads every file concurrently and returns their data URIs in
// the order given. Files larger than maxBytes are rejected with a
// ValidationError; a non-positive maxBytes disables the limit.
func EncodeFiles(ctx context.Context, files []*multipart.FileHeader, maxBytes int64) ([]string, error) {
	out := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, fh := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if maxBytes > 0 && fh.Size > maxBytes {
				return apperr.Validation("files", "%s exceeds %d bytes", fh.Filename, maxBytes)
			}
			f, err := fh.Open()
			if err != nil {
				return fmt.Errorf("opening upload %s: %w", fh.Filename, err)
			}
			defer f.Close()

			data, err := io.ReadAll(f)
			if err != nil {
				return fmt.Errorf("reading upload %s: %w", fh.Filename, err)
			}
			out[i] = DataURI(fh.Header.Get("Content-Type"), data)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

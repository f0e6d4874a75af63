package upload

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcheck/fitcheck/internal/apperr"
)

type part struct {
	name, contentType string
	data              []byte
}

func parseFiles(t *testing.T, parts ...part) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+p.name+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, _ = pw.Write(p.data)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["files"]
}

func TestEncodeFilesKeepsOrder(t *testing.T) {
	files := parseFiles(t,
		part{"a.png", "image/png", []byte("first")},
		part{"b.jpg", "image/jpeg", []byte("second")},
		part{"c.txt", "text/plain; charset=utf-8", []byte("third")},
	)

	uris, err := EncodeFiles(context.Background(), files, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"data:image/png;base64,Zmlyc3Q=",
		"data:image/jpeg;base64,c2Vjb25k",
		"data:text/plain;base64,dGhpcmQ=",
	}, uris)
}

func TestEncodeFilesTooLarge(t *testing.T) {
	files := parseFiles(t, part{"big.png", "image/png", bytes.Repeat([]byte("x"), 100)})

	_, err := EncodeFiles(context.Background(), files, 10)

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "files", ve.Field)
}

func TestDataURISniffsType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	assert.Contains(t, DataURI("", png), "data:image/png;base64,")
	assert.Contains(t, DataURI("application/octet-stream", png), "data:image/png;base64,")
}

package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
)

// multipartForm assembles a multipart/form-data body from string fields and
// files on disk.
type multipartForm struct {
	fields map[string]string
	files  map[string]string // form name -> path
	order  []string
}

func newMultipartForm() *multipartForm {
	return &multipartForm{
		fields: make(map[string]string),
		files:  make(map[string]string),
	}
}

func (f *multipartForm) addField(name, value string) {
	if _, dup := f.fields[name]; !dup {
		f.order = append(f.order, name)
	}
	f.fields[name] = value
}

func (f *multipartForm) addFile(name, path string) {
	if path == "" {
		return
	}
	if _, dup := f.files[name]; !dup {
		f.order = append(f.order, name)
	}
	f.files[name] = path
}

// encode writes the body and returns it with the boundary content type.
func (f *multipartForm) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range f.order {
		if value, ok := f.fields[name]; ok {
			if err := w.WriteField(name, value); err != nil {
				return nil, "", apperror.Wrap(err, apperror.ErrCodeBadRequest, "cannot write form field")
			}
			continue
		}

		path := f.files[name]
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, "", apperror.Wrap(err, apperror.ErrCodeBadRequest, fmt.Sprintf("cannot read %s", path))
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, filepath.Base(path)))
		header.Set("Content-Type", sniffContentType(content))

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", apperror.Wrap(err, apperror.ErrCodeBadRequest, "cannot write form file")
		}
		if _, err := part.Write(content); err != nil {
			return nil, "", apperror.Wrap(err, apperror.ErrCodeBadRequest, "cannot write form file")
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeBadRequest, "cannot finish form")
	}
	return &buf, w.FormDataContentType(), nil
}

// sniffContentType detects the MIME type from the file's magic bytes,
// falling back to octet-stream for unknown formats.
func sniffContentType(content []byte) string {
	kind, err := filetype.Match(content)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}

// isSupportedDocument limits KYC uploads to formats the review screen can
// display.
func isSupportedDocument(content []byte) bool {
	kind, err := filetype.Match(content)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(kind.MIME.Value, "image/"):
		return true
	case kind.MIME.Value == "application/pdf":
		return true
	}
	return false
}

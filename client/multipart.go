package client

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
)

// FormFile represents a file part of a multipart form.
type FormFile struct {
	FieldName string
	FileName  string
	Content   io.Reader
	MIMEType  string // detected from the filename when empty
}

// FormData builds a multipart/form-data request body.
type FormData struct {
	Fields map[string]string
	Files  []FormFile
}

// NewFormData creates an empty FormData.
func NewFormData() *FormData {
	return &FormData{
		Fields: make(map[string]string),
	}
}

// AddField adds a regular form field.
func (f *FormData) AddField(name, value string) *FormData {
	f.Fields[name] = value
	return f
}

// AddFile adds a file part from bytes.
func (f *FormData) AddFile(fieldName, fileName string, content []byte) *FormData {
	f.Files = append(f.Files, FormFile{
		FieldName: fieldName,
		FileName:  fileName,
		Content:   bytes.NewReader(content),
		MIMEType:  detectMIMEType(fileName),
	})
	return f
}

// AddFileReader adds a file part from an io.Reader.
func (f *FormData) AddFileReader(fieldName, fileName string, content io.Reader, mimeType string) *FormData {
	if mimeType == "" {
		mimeType = detectMIMEType(fileName)
	}
	f.Files = append(f.Files, FormFile{
		FieldName: fieldName,
		FileName:  fileName,
		Content:   content,
		MIMEType:  mimeType,
	})
	return f
}

// Encode encodes the form, returning the body bytes and the Content-Type
// header value with boundary.
func (f *FormData) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range f.Fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.FieldName), escapeQuotes(file.FileName)))
		h.Set("Content-Type", file.MIMEType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part for %s: %w", file.FieldName, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("failed to copy file content for %s: %w", file.FieldName, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func detectMIMEType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

package client

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"
)

func TestFormDataEncode(t *testing.T) {
	form := NewFormData().
		AddField("name", "ada").
		AddFile("doc", "notes.txt", []byte("hello"))

	body, contentType, err := form.Encode()
	if err != nil {
		t.Fatal(err)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("media type = %q", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	parts := map[string]string{}
	var fileType string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		content, _ := io.ReadAll(part)
		parts[part.FormName()] = string(content)
		if part.FormName() == "doc" {
			fileType = part.Header.Get("Content-Type")
		}
	}

	if parts["name"] != "ada" {
		t.Errorf("field name = %q", parts["name"])
	}
	if parts["doc"] != "hello" {
		t.Errorf("file content = %q", parts["doc"])
	}
	if !strings.HasPrefix(fileType, "text/plain") {
		t.Errorf("file content type = %q", fileType)
	}
}

func TestRequestSetForm(t *testing.T) {
	form := NewFormData().AddField("k", "v")

	var req Request
	if err := req.SetForm(form); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(req.ContentType, "multipart/form-data; boundary=") {
		t.Errorf("ContentType = %q", req.ContentType)
	}
	if len(req.Body) == 0 {
		t.Error("empty encoded body")
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		prefix   string
	}{
		{"photo.png", "image/png"},
		{"data.json", "application/json"},
		{"unknown.zzz", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := detectMIMEType(tt.filename); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("detectMIMEType(%q) = %q", tt.filename, got)
		}
	}
}

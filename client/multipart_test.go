package client

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildMultipart_Layout(t *testing.T) {
	form := Form{
		Fields: []Field{{Name: "title", Value: "report"}, {Name: "year", Value: "2024"}},
		Files:  []File{{Data: []byte("a,b\n1,2\n"), FieldName: "file", FileName: "data.csv", MIMEType: "text/csv"}},
	}

	got, err := BuildMultipart("B", form)
	if err != nil {
		t.Fatal(err)
	}

	exp := "--B\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n\r\n" +
		"report\r\n" +
		"--B\r\n" +
		"Content-Disposition: form-data; name=\"year\"\r\n\r\n" +
		"2024\r\n" +
		"--B\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"data.csv\"\r\n" +
		"Content-Type: text/csv\r\n\r\n" +
		"a,b\n1,2\n\r\n" +
		"--B--\r\n"

	if diff := cmp.Diff(exp, string(got)); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}

	again, err := BuildMultipart("B", form)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, again) {
		t.Error("output is not deterministic")
	}
}

func TestBuildMultipart_Empty(t *testing.T) {
	got, err := BuildMultipart("B", Form{})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "--B--\r\n" {
		t.Errorf("expected bare terminator, got %q", got)
	}
}

func TestBuildMultipart_Parseable(t *testing.T) {
	boundary := NewBoundary()
	if !strings.HasPrefix(boundary, "Boundary-") {
		t.Fatalf("unexpected boundary %q", boundary)
	}

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	form := Form{
		Fields: []Field{{Name: `quote"d`, Value: "v"}},
		Files:  []File{{Data: png, FieldName: "image", FileName: "pic.png"}},
	}

	body, err := BuildMultipart(boundary, form)
	if err != nil {
		t.Fatal(err)
	}

	mt, params, err := mime.ParseMediaType(MultipartContentType(boundary))
	if err != nil || mt != "multipart/form-data" || params["boundary"] != boundary {
		t.Fatalf("bad content type: %q %v %v", mt, params, err)
	}

	r := multipart.NewReader(bytes.NewReader(body), boundary)

	part, err := r.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if part.FormName() != `quote"d` {
		t.Errorf("expected escaped name to round trip, got %q", part.FormName())
	}

	part, err = r.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if ct := part.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected detected image/png, got %q", ct)
	}
	data, err := io.ReadAll(part)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, png) {
		t.Error("file bytes altered")
	}

	if _, err := r.NextPart(); err != io.EOF {
		t.Errorf("expected EOF after last part, got %v", err)
	}
}

func TestBuildMultipart_InvalidBoundary(t *testing.T) {
	if _, err := BuildMultipart("bad boundary!", Form{Fields: []Field{{Name: "a", Value: "b"}}}); err == nil {
		t.Error("expected invalid boundary error")
	}
}

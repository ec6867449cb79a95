package client

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// Payload is the body of a raw [Upload]: in-memory bytes or a file
// streamed from disk.
type Payload struct {
	data        []byte
	path        string
	contentType string
}

// FromBytes uploads data. An empty contentType is detected.
func FromBytes(data []byte, contentType string) Payload {
	return Payload{data: data, contentType: contentType}
}

// FromFile streams the file at path. An empty contentType is detected.
func FromFile(path, contentType string) Payload {
	return Payload{path: path, contentType: contentType}
}

func (p Payload) open() (io.ReadCloser, int64, string, error) {
	if p.path == "" {
		ct := p.contentType
		if ct == "" {
			ct = mimetype.Detect(p.data).String()
		}
		return io.NopCloser(bytes.NewReader(p.data)), int64(len(p.data)), ct, nil
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, 0, "", fmt.Errorf("opening upload file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, "", fmt.Errorf("stat upload file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, "", fmt.Errorf("upload path %q is a directory", p.path)
	}

	ct := p.contentType
	if ct == "" {
		mt, err := mimetype.DetectFile(p.path)
		if err != nil {
			f.Close()
			return nil, 0, "", fmt.Errorf("detecting content type: %w", err)
		}
		ct = mt.String()
	}

	return f, info.Size(), ct, nil
}

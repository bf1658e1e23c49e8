package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxBlobSize = 64 << 20

// Blob is a binary download (QR code image, exported file).
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

func (c *Client) download(ctx context.Context, p, fallbackName string) (Blob, error) {
	resp, err := c.send(ctx, http.MethodGet, p, nil)
	if err != nil {
		return Blob{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize+1))
	if err != nil {
		return Blob{}, fmt.Errorf("api: read download: %w", err)
	}
	if len(data) > maxBlobSize {
		return Blob{}, fmt.Errorf("api: download exceeds %d bytes", maxBlobSize)
	}
	ct := resp.Header.Get("Content-Type")
	return Blob{
		Name:        blobName(resp.Header.Get("Content-Disposition"), ct, fallbackName),
		ContentType: ct,
		Data:        data,
	}, nil
}

func blobName(disposition, contentType, fallback string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if fn := filepath.Base(strings.TrimSpace(params["filename"])); fn != "" && fn != "." && fn != "/" {
			return fn
		}
	}
	name := fallback
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "image/png":
			return name + ".png"
		case "image/svg+xml":
			return name + ".svg"
		case "image/jpeg":
			return name + ".jpg"
		case "application/pdf":
			return name + ".pdf"
		}
		if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
			return name + exts[0]
		}
	}
	return name
}

// Save writes the blob into dir and returns the written path. Existing files
// are not overwritten; a numeric suffix is added instead.
func (b Blob) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := filepath.Base(b.Name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	p := filepath.Join(dir, base)
	for i := 1; ; i++ {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			if _, err := f.Write(b.Data); err != nil {
				_ = f.Close()
				return "", err
			}
			return p, f.Close()
		}
		if !os.IsExist(err) {
			return "", err
		}
		p = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
}

// FileURL renders a path as a clickable file:// link for terminals that support it.
func FileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}

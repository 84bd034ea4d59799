package textures

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// maxImageBytes bounds a single remote or embedded image.
const maxImageBytes = 64 << 20

// read returns the raw bytes behind a normalized source.
func (tm *TextureManager) read(ctx context.Context, source string) ([]byte, error) {
	switch s := strings.ToLower(source); {
	case strings.HasPrefix(s, "data:"):
		return decodeDataURI(source)
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return tm.download(ctx, source)
	case strings.HasPrefix(s, "file://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(filepath.FromSlash(u.Path))
	}
	return tm.readLocal(source)
}

func (tm *TextureManager) download(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := tm.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// readLocal resolves a rooted relative source ("/images/a.jpg") against the
// asset root.
func (tm *TextureManager) readLocal(source string) ([]byte, error) {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	p, err := url.PathUnescape(source)
	if err != nil {
		return nil, err
	}
	root := tm.root
	if root == "" {
		root = "."
	}
	return os.ReadFile(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(p, "/"))))
}

// decodeDataURI handles "data:[<mediatype>][;base64],<payload>".
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("data uri: missing payload")
	}
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// payloads are sometimes left unpadded
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data uri: %w", err)
	}
	return []byte(s), nil
}

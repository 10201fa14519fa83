package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ProgressFunc receives the bytes read so far and the expected total.
// total is -1 when the transport cannot tell the size up front.
type ProgressFunc func(loaded, total int64)

// Transport opens an asset for streaming. size is -1 when unknown.
type Transport interface {
	Open(ctx context.Context, path string) (rc io.ReadCloser, size int64, err error)
}

// FileTransport reads assets from the local filesystem.
type FileTransport struct{}

func (ft *FileTransport) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, -1, err
	}
	f, err := os.Open(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return nil, -1, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, -1, err
	}
	if info.IsDir() {
		f.Close()
		return nil, -1, fmt.Errorf("%s is a directory", path)
	}
	return f, info.Size(), nil
}

// HTTPTransport fetches assets with GET requests.
type HTTPTransport struct {
	Client *http.Client
}

func (ht *HTTPTransport) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	client := ht.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, -1, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, -1, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, -1, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	// ContentLength is -1 when the server streams without a length
	return resp.Body, resp.ContentLength, nil
}

// SchemeTransport routes http(s) URLs to HTTP and everything else to File.
type SchemeTransport struct {
	File Transport
	HTTP Transport
}

func NewDefaultTransport() *SchemeTransport {
	return &SchemeTransport{
		File: &FileTransport{},
		HTTP: &HTTPTransport{Client: &http.Client{}},
	}
}

func (st *SchemeTransport) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	if IsRemote(path) {
		return st.HTTP.Open(ctx, path)
	}
	return st.File.Open(ctx, path)
}

func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// resolveSibling locates uri relative to the asset at base, which is how
// glTF references its external buffers.
func resolveSibling(base, uri string) (string, error) {
	if IsRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return "", err
		}
		ref, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return b.ResolveReference(ref).String(), nil
	}
	if IsRemote(uri) || filepath.IsAbs(uri) {
		return uri, nil
	}
	dir := filepath.Dir(strings.TrimPrefix(base, "file://"))
	unescaped, err := url.PathUnescape(uri)
	if err != nil {
		unescaped = uri
	}
	return filepath.Join(dir, unescaped), nil
}

// progressReader reports every successful read to onProgress.
type progressReader struct {
	r          io.Reader
	loaded     int64
	total      int64
	onProgress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, onProgress ProgressFunc) io.Reader {
	if onProgress == nil {
		return r
	}
	return &progressReader{r: r, total: total, onProgress: onProgress}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.loaded += int64(n)
		pr.onProgress(pr.loaded, pr.total)
	}
	return n, err
}

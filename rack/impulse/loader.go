package impulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

const defaultMaxBytes = 64 << 20

// ErrFetch is wrapped by every failure to retrieve locator bytes.
var ErrFetch = errors.New("impulse: fetch failed")

// Loader retrieves and decodes one impulse response.
type Loader interface {
	Load(ctx context.Context, locator string) (*audiograph.Buffer, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, locator string) (*audiograph.Buffer, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, locator string) (*audiograph.Buffer, error) {
	return f(ctx, locator)
}

// FetchLoader reads http(s) locators over HTTP and everything else from a
// filesystem, then decodes the bytes.
type FetchLoader struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// FS resolves non-URL locators; nil means the OS filesystem.
	FS fs.FS
	// MaxBytes caps a single response; 0 means 64 MiB.
	MaxBytes int64
}

// Load fetches locator and decodes it. A "#name" fragment selects one entry
// of an IRLB library.
func (l *FetchLoader) Load(ctx context.Context, locator string) (*audiograph.Buffer, error) {
	target, fragment, _ := strings.Cut(locator, "#")

	data, err := l.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	if fragment != "" {
		return DecodeNamed(data, fragment)
	}

	return Decode(data)
}

func (l *FetchLoader) fetch(ctx context.Context, target string) ([]byte, error) {
	limit := l.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return l.fetchHTTP(ctx, target, limit)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, target, err)
	}

	var (
		data []byte
		err  error
	)

	if l.FS != nil {
		data, err = fs.ReadFile(l.FS, target)
	} else {
		data, err = os.ReadFile(target)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFetch, target, limit)
	}

	return data, nil
}

func (l *FetchLoader) fetchHTTP(ctx context.Context, url string, limit int64) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %s", ErrFetch, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}

	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFetch, url, limit)
	}

	return data, nil
}

// Package probe checks whether an HLS stream is actually being served.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

var ErrNotLive = errors.New("stream playlist not available")

// HLSProber issues HEAD requests against <base>/<streamKey>/index.m3u8.
type HLSProber struct {
	baseURL  string
	client   *http.Client
	attempts uint64
	spacing  time.Duration
}

type Option func(*HLSProber)

// WithSpacing sets the pause between attempts.
func WithSpacing(d time.Duration) Option {
	return func(p *HLSProber) { p.spacing = d }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *HLSProber) { p.client = c }
}

// NewHLSProber makes two attempts one second apart unless overridden.
func NewHLSProber(baseURL string, opts ...Option) *HLSProber {
	p := &HLSProber{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 2 * time.Second},
		attempts: 2,
		spacing:  time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *HLSProber) playlistURL(streamKey string) string {
	return p.baseURL + "/" + url.PathEscape(streamKey) + "/index.m3u8"
}

// Probe returns nil once the playlist answers 2xx. Non-2xx answers and
// transport errors are retried until the attempts run out.
func (p *HLSProber) Probe(ctx context.Context, streamKey string) error {
	target := p.playlistURL(streamKey)
	backoff := retry.WithMaxRetries(p.attempts-1, retry.NewConstant(p.spacing))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
		if err != nil {
			return err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("head %s: %w", target, err))
		}
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return retry.RetryableError(fmt.Errorf("%w: status %d", ErrNotLive, resp.StatusCode))
		}
		return nil
	})
}

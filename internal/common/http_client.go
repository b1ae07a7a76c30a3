package common

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClientBuilder provides a fluent interface for building HTTP clients
type HTTPClientBuilder struct {
	logger             zerolog.Logger
	timeout            time.Duration
	insecureSkipVerify bool
	followRedirects    bool
	maxRedirects       int
	maxIdleConns       int
	maxConnsPerHost    int
}

// NewHTTPClientBuilder creates a new HTTP client builder with sane defaults
func NewHTTPClientBuilder(logger zerolog.Logger) *HTTPClientBuilder {
	return &HTTPClientBuilder{
		logger:          logger,
		timeout:         30 * time.Second,
		followRedirects: true,
		maxRedirects:    5,
		maxIdleConns:    50,
		maxConnsPerHost: 10,
	}
}

// WithTimeout sets the overall request timeout
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	if timeout > 0 {
		b.timeout = timeout
	}
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification
func (b *HTTPClientBuilder) WithInsecureSkipVerify(skip bool) *HTTPClientBuilder {
	b.insecureSkipVerify = skip
	return b
}

// WithFollowRedirects controls redirect following behaviour
func (b *HTTPClientBuilder) WithFollowRedirects(follow bool) *HTTPClientBuilder {
	b.followRedirects = follow
	return b
}

// WithMaxRedirects caps the number of redirects followed per request
func (b *HTTPClientBuilder) WithMaxRedirects(max int) *HTTPClientBuilder {
	if max > 0 {
		b.maxRedirects = max
	}
	return b
}

// Build creates the configured *http.Client
func (b *HTTPClientBuilder) Build() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        b.maxIdleConns,
		MaxConnsPerHost:     b.maxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if b.insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := &http.Client{
		Timeout:   b.timeout,
		Transport: transport,
	}

	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		maxRedirects := b.maxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return NewError("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	}

	return client
}

// HTTPClientFactory provides methods to create common HTTP client configurations
type HTTPClientFactory struct {
	logger zerolog.Logger
}

// NewHTTPClientFactory creates a new HTTP client factory
func NewHTTPClientFactory(logger zerolog.Logger) *HTTPClientFactory {
	return &HTTPClientFactory{logger: logger}
}

// CreateWebhookClient creates an HTTP client optimized for webhook delivery
func (f *HTTPClientFactory) CreateWebhookClient(timeout time.Duration) *http.Client {
	return NewHTTPClientBuilder(f.logger).
		WithTimeout(timeout).
		WithFollowRedirects(true).
		WithMaxRedirects(3).
		Build()
}

// CreateAssetClient creates an HTTP client optimized for asset downloads
func (f *HTTPClientFactory) CreateAssetClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	return NewHTTPClientBuilder(f.logger).
		WithTimeout(timeout).
		WithInsecureSkipVerify(insecureSkipVerify).
		WithFollowRedirects(true).
		Build()
}

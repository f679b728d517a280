package httpengine

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// ErrorClass buckets a send failure the way spec.md §4.6/§7 requires, so
// callers (chain triggers, UI) can react to "can't reach the host"
// differently from "server misbehaved" without string-matching errors.
type ErrorClass int

const (
	ClassOther ErrorClass = iota
	ClassConnect
	ClassTLS
	ClassTimeout
	ClassRead
	ClassCancelled
)

func (c ErrorClass) String() string {
	switch c {
	case ClassConnect:
		return "connect"
	case ClassTLS:
		return "tls"
	case ClassTimeout:
		return "timeout"
	case ClassRead:
		return "read"
	case ClassCancelled:
		return "cancelled"
	default:
		return "other"
	}
}

// SendError is the classified error returned by Engine.Send.
type SendError struct {
	Class ErrorClass
	Cause error
}

func (e *SendError) Error() string { return fmt.Sprintf("httpengine: %s: %v", e.Class, e.Cause) }
func (e *SendError) Unwrap() error { return e.Cause }

// Exchange is one completed request/response pair, ready for the caller to
// hand to a persistence layer or a chain selector.
type Exchange struct {
	Request      *WireRequest
	StatusCode   int
	ResponseHead http.Header
	ResponseBody []byte
	StartTime    time.Time
	EndTime      time.Time
}

// Engine sends built requests over a configurable *http.Client: redirect
// following and per-host TLS verification skipping are runtime options
// (spec.md §4.6), not per-request concerns.
type Engine struct {
	client *http.Client
}

// Option configures an Engine at construction.
type Option func(*engineConfig)

type engineConfig struct {
	followRedirects bool
	insecureHosts   map[string]bool
	timeout         time.Duration
}

// WithFollowRedirects toggles HTTP redirect following. Default: true.
func WithFollowRedirects(follow bool) Option {
	return func(c *engineConfig) { c.followRedirects = follow }
}

// WithInsecureHosts disables TLS certificate verification for exactly the
// listed hosts (host:port or bare host), leaving every other host verified
// normally.
func WithInsecureHosts(hosts []string) Option {
	return func(c *engineConfig) {
		for _, h := range hosts {
			c.insecureHosts[h] = true
		}
	}
}

// WithTimeout bounds total request time, including redirects. Zero means
// no timeout; per-request cancellation is still available via context.
func WithTimeout(d time.Duration) Option {
	return func(c *engineConfig) { c.timeout = d }
}

// New builds an Engine. With no options: redirects followed, all hosts
// verified, no timeout beyond the caller's context.
func New(opts ...Option) *Engine {
	cfg := &engineConfig{followRedirects: true, insecureHosts: map[string]bool{}}
	for _, o := range opts {
		o(cfg)
	}

	transport := &perHostTLSTransport{
		insecureHosts: cfg.insecureHosts,
		base:          http.DefaultTransport.(*http.Transport).Clone(),
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.timeout,
	}
	if !cfg.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &Engine{client: client}
}

// perHostTLSTransport skips certificate verification only for hosts in
// insecureHosts, so an operator can trust one self-signed dev host without
// weakening every other request the engine sends.
type perHostTLSTransport struct {
	insecureHosts map[string]bool
	base          *http.Transport
	insecure      *http.Transport
	mu            sync.Mutex
}

func (t *perHostTLSTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.insecureHosts) == 0 || !t.insecureHosts[req.URL.Hostname()] && !t.insecureHosts[req.URL.Host] {
		return t.base.RoundTrip(req)
	}
	t.mu.Lock()
	if t.insecure == nil {
		insecureBase := t.base.Clone()
		if insecureBase.TLSClientConfig == nil {
			insecureBase.TLSClientConfig = &tls.Config{}
		} else {
			insecureBase.TLSClientConfig = insecureBase.TLSClientConfig.Clone()
		}
		insecureBase.TLSClientConfig.InsecureSkipVerify = true
		t.insecure = insecureBase
	}
	insecure := t.insecure
	t.mu.Unlock()
	return insecure.RoundTrip(req)
}

// Send performs req and classifies any failure. No HTTP status, 4xx and
// 5xx included, is itself an error: spec.md treats HTTP-level failures as
// successful Exchanges the caller inspects, reserving SendError for
// transport-level failure.
func (e *Engine) Send(ctx context.Context, req *WireRequest) (*Exchange, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, &SendError{Class: ClassOther, Cause: err}
	}
	httpReq.Header = req.Header

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &SendError{Class: classify(err), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SendError{Class: ClassRead, Cause: err}
	}
	end := time.Now()

	return &Exchange{
		Request:      req,
		StatusCode:   resp.StatusCode,
		ResponseHead: resp.Header,
		ResponseBody: body,
		StartTime:    start,
		EndTime:      end,
	}, nil
}

func classify(err error) ErrorClass {
	if errors.Is(err, context.Canceled) {
		return ClassCancelled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return ClassTLS
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return ClassConnect
		}
		if opErr.Op == "read" {
			return ClassRead
		}
	}
	return ClassOther
}

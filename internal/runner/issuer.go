package runner

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
)

// Issuer performs a single request. Implementations never fail the caller for
// network errors; those come back as a Result with Success=false.
type Issuer interface {
	Issue(ctx context.Context, url string) Result
}

// NewClient builds the client shared by every worker. The transport allows at
// least one connection per worker to the same host.
func NewClient(workers int, timeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if workers > t.MaxIdleConns {
		t.MaxIdleConns = workers
	}
	t.MaxIdleConnsPerHost = workers
	t.MaxConnsPerHost = workers
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	configureHTTP2(t)

	return &http.Client{
		Timeout:   timeout,
		Transport: t,
	}
}

// configureHTTP2 enables HTTP/2 on t. On failure the client keeps working over
// HTTP/1.1, so the error is only logged.
func configureHTTP2(t *http.Transport) {
	if err := http2.ConfigureTransport(t); err != nil {
		logrus.WithError(err).Warn("http2 not configured, falling back to HTTP/1.1")
	}
}

type HTTPIssuer struct {
	Client *http.Client
}

func NewHTTPIssuer(client *http.Client) *HTTPIssuer {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPIssuer{Client: client}
}

// Issue sends one GET. Start is taken right before the request goes out and
// End once the body is drained (or the transport gives up).
func (h *HTTPIssuer) Issue(ctx context.Context, url string) Result {
	res := Result{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		now := time.Now()
		res.Start, res.End = now, now
		res.ErrorDetail = err.Error()
		return res
	}

	res.Start = time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		res.End = time.Now()
		res.ErrorDetail = err.Error()
		return res
	}
	// body download counts towards elapsed, like a full page fetch
	_, copyErr := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	res.End = time.Now()
	res.Status = resp.StatusCode

	switch {
	case resp.StatusCode >= 400:
		res.ErrorDetail = fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	case copyErr != nil:
		res.ErrorDetail = fmt.Sprintf("reading body: %v", copyErr)
	default:
		res.Success = true
	}
	return res
}

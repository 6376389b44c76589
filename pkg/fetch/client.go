// Package fetch retrieves the declarative configuration document and
// resolves the image it asks the host to run.
package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/bottlerocket-os/switchdog/pkg/auth"
	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/logging"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 60 * time.Second

// Client fetches configuration documents.
type Client struct {
	log  logging.Logger
	http *resty.Client
}

// Response is a successful (200) fetch.
type Response struct {
	// Body is the raw document.
	Body []byte
	// Commit is the token the server returned, if any.
	Commit string
	// HasCommit is true when the server sent a commit header.
	HasCommit bool
}

// New returns a Client using the given timeout; zero selects DefaultTimeout.
func New(log logging.Logger, timeout time.Duration) *Client {
	return NewWithClient(log, &http.Client{}, timeout)
}

// NewWithClient returns a Client on top of hc.
func NewWithClient(log logging.Logger, hc *http.Client, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		log: log,
		http: resty.NewWithClient(hc).
			SetTimeout(timeout).
			SetHeader("User-Agent", "switchdog"),
	}
}

// Get issues a GET to endpoint carrying headers. There are no retries: a
// network failure or any status other than 200 is a Transport fault and the
// next scheduled run tries again.
func (c *Client) Get(ctx context.Context, endpoint string, headers auth.Headers) (*Response, error) {
	if logging.Debuggable {
		c.log.WithField("headers", headers).Debug("sending headers")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(endpoint)
	if err != nil {
		return nil, fault.Wrapf(fault.Transport, err, "request to %s failed", endpoint)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fault.Errorf(fault.Transport, "invalid request: %d %s, %s",
			resp.StatusCode(), http.StatusText(resp.StatusCode()), endpoint)
	}

	r := &Response{Body: resp.Body()}
	if values := resp.Header().Values(auth.HeaderCommit); len(values) > 0 {
		r.Commit = values[0]
		r.HasCommit = true
	}
	c.log.WithFields(logrus.Fields{
		"status": resp.StatusCode(),
		"bytes":  len(r.Body),
		"commit": r.Commit,
	}).Debug("fetched configuration")
	return r, nil
}

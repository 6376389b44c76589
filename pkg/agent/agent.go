package agent

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/bottlerocket-os/switchdog/pkg/auth"
	"github.com/bottlerocket-os/switchdog/pkg/commit"
	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/fetch"
	"github.com/bottlerocket-os/switchdog/pkg/identity"
	"github.com/bottlerocket-os/switchdog/pkg/internal/logfields"
	"github.com/bottlerocket-os/switchdog/pkg/logging"
	"github.com/bottlerocket-os/switchdog/pkg/metrics"
	"github.com/bottlerocket-os/switchdog/pkg/platform"
	"github.com/containerd/containerd/reference/docker"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Config is the part of the agent's configuration used by a run.
type Config struct {
	// Endpoint is the URL the configuration document is fetched from.
	Endpoint string
	// Credential signs requests when its secret is set.
	Credential auth.Credential
	// Service and Region scope the signature.
	Service string
	Region  string
	// Location is the directory holding the commit token file.
	Location string
}

type identityReader interface {
	Read() (identity.Identity, error)
}

type fetcher interface {
	Get(ctx context.Context, endpoint string, headers auth.Headers) (*fetch.Response, error)
}

// Agent performs workflow runs. Each run is independent; the only state
// carried between runs is the commit token on disk.
type Agent struct {
	log      logging.Logger
	cfg      Config
	platform platform.Platform

	identity identityReader
	client   fetcher
	metrics  *metrics.Metrics
	nonce    func() string
}

// Option adjusts an Agent built by New.
type Option func(*Agent)

// WithIdentity replaces the host identity source.
func WithIdentity(r identityReader) Option {
	return func(a *Agent) { a.identity = r }
}

// WithMetrics records run outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithNonce replaces the nonce generator.
func WithNonce(fn func() string) Option {
	return func(a *Agent) { a.nonce = fn }
}

// New returns an Agent fetching through client and applying through plat.
func New(log logging.Logger, cfg Config, client fetcher, plat platform.Platform, opts ...Option) (*Agent, error) {
	switch {
	case client == nil:
		return nil, errors.New("fetch client is nil")
	case plat == nil:
		return nil, errors.New("supporting platform is nil")
	}
	a := &Agent{
		log:      log,
		cfg:      cfg,
		platform: plat,
		identity: identity.Default,
		client:   client,
		nonce:    auth.NewNonce,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Tick performs one run, logging its outcome. It never panics and never
// returns an error: a failed run is retried by the next tick.
func (a *Agent) Tick(ctx context.Context) {
	runID := uuid.New().String()
	log := a.log.WithField("run", runID)
	start := time.Now()

	image, err := a.safeProcess(ctx, runID)
	took := time.Since(start)
	if a.metrics != nil {
		a.metrics.ObserveRun(err, took)
	}
	if err != nil {
		log.WithError(err).
			WithField("kind", fault.KindOf(err)).
			WithField("took", took).
			Error("update run failed")
		return
	}
	log.WithField("image", image).
		WithField("took", took).
		Info("update run complete")
}

func (a *Agent) safeProcess(ctx context.Context, runID string) (image string, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithField("run", runID).
				WithField("stack", string(debug.Stack())).
				Error("recovered from panic in update run")
			err = fault.New(fault.Unknown, fmt.Sprintf("panic: %v", r))
		}
	}()
	return a.process(ctx, runID)
}

// Process performs one run and returns the image it applied.
func (a *Agent) Process(ctx context.Context) (string, error) {
	return a.process(ctx, uuid.New().String())
}

func (a *Agent) process(ctx context.Context, runID string) (string, error) {
	log := a.log.WithField("run", runID)

	if a.cfg.Endpoint == "" {
		return "", fault.New(fault.Configuration, "endpoint must be provided")
	}
	endpoint, err := url.Parse(a.cfg.Endpoint)
	if err != nil {
		return "", fault.Wrapf(fault.Configuration, err, "invalid endpoint %q", a.cfg.Endpoint)
	}

	headers, err := a.headers(endpoint)
	if err != nil {
		return "", err
	}
	if token, ok, err := commit.Read(a.cfg.Location); err != nil {
		return "", err
	} else if ok {
		if err := headers.WithCommit(token); err != nil {
			return "", err
		}
		log.WithFields(logfields.Commit(token)).Debug("sending prior commit")
	}

	resp, err := a.client.Get(ctx, endpoint.String(), headers)
	if err != nil {
		return "", err
	}
	if resp.HasCommit {
		if err := commit.Write(a.cfg.Location, resp.Commit); err != nil {
			return "", err
		}
		if a.metrics != nil {
			a.metrics.ObserveCommit()
		}
		log.WithFields(logfields.Commit(resp.Commit)).Debug("stored commit")
	}

	doc, err := fetch.Decode(resp.Body)
	if err != nil {
		return "", err
	}
	image, err := doc.Image()
	if err != nil {
		return "", err
	}
	fields := logfields.Image(image)
	if named, err := docker.ParseDockerRef(image); err == nil {
		fields["reference"] = named.String()
	}
	log.WithFields(fields).Debug("resolved image")

	if _, err := a.platform.Switch(image); err != nil {
		return "", err
	}
	return image, nil
}

// headers builds the request headers. The host identity is read on every
// run; requests are signed only when a secret is configured.
func (a *Agent) headers(endpoint *url.URL) (auth.Headers, error) {
	id, err := a.identity.Read()
	if err != nil {
		return nil, err
	}
	if !a.cfg.Credential.Enabled() {
		return auth.Headers{}, nil
	}
	return auth.Sign(auth.Request{
		Endpoint:   endpoint,
		Credential: a.cfg.Credential,
		Region:     a.cfg.Region,
		Service:    a.cfg.Service,
		Identity:   id,
		Nonce:      a.nonce(),
	})
}

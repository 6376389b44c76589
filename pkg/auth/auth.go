// Package auth builds the header set an agent request carries.
package auth

import (
	"math/rand/v2"
	"net/url"
	"strconv"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/identity"
	"github.com/bottlerocket-os/switchdog/pkg/messagesign"
	"golang.org/x/net/http/httpguts"
)

const (
	// Method is the only method agents sign.
	Method = "GET"
	// PayloadHash is sent in place of a body hash.
	PayloadHash = messagesign.UnsignedPayload
	// DefaultRegion is the region label agents sign for.
	DefaultRegion = "global"

	HeaderAuthorization = "Authorization"
	// HeaderCommit carries the commit token in both directions.
	HeaderCommit = "x-clos-commit"
)

// Headers is the set of header values attached to one request. It is built
// per request and never reused.
type Headers map[string]string

// Credential switches signing on when Secret is set.
type Credential struct {
	Key    string
	Secret string
}

// Enabled reports whether requests should be signed.
func (c Credential) Enabled() bool {
	return c.Secret != ""
}

// Request is everything needed to sign one GET.
type Request struct {
	Endpoint   *url.URL
	Credential Credential
	Region     string
	Service    string
	Identity   identity.Identity
	Nonce      string
}

// NewNonce returns a fresh single-use nonce: a random 32-bit value in
// decimal. It need not be cryptographically secure.
func NewNonce() string {
	return strconv.FormatUint(uint64(rand.Uint32()), 10)
}

// Sign returns the signed header set for r. Any failure of the signer is a
// Signature fault.
func Sign(r Request) (Headers, error) {
	region := r.Region
	if region == "" {
		region = DefaultRegion
	}
	sig, err := messagesign.Sign(r.Endpoint, Method,
		r.Credential.Key, r.Credential.Secret,
		region, r.Service,
		r.Identity.MachineID, r.Identity.Hostname,
		PayloadHash, r.Nonce)
	if err != nil {
		return nil, fault.Wrap(fault.Signature, err, "signature creation failure")
	}
	h := Headers{
		messagesign.HeaderContentSHA256: PayloadHash,
		messagesign.HeaderDate:          sig.DateTime,
		HeaderAuthorization:             sig.AuthHeader,
		messagesign.HeaderMachineID:     r.Identity.MachineID,
		messagesign.HeaderHostname:      r.Identity.Hostname,
		messagesign.HeaderNonce:         r.Nonce,
	}
	for name, value := range h {
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fault.Errorf(fault.Parse, "invalid value for header %s: %q", name, value)
		}
	}
	return h, nil
}

// WithCommit attaches a prior commit token. Tokens that cannot travel as a
// header value are a Parse fault.
func (h Headers) WithCommit(token string) error {
	if !httpguts.ValidHeaderFieldValue(token) {
		return fault.Errorf(fault.Parse, "commit token is not a valid header value: %q", token)
	}
	h[HeaderCommit] = token
	return nil
}

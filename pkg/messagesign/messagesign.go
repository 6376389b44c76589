// Package messagesign computes and verifies the request signature the
// configuration server expects from agents.
//
// The scheme follows the shape of AWS Signature Version 4 with its own
// algorithm name, header prefix and key derivation constant: a canonical
// request over the method, path, query, the signed headers and a payload
// hash marker is hashed into a string to sign, which is signed with a key
// derived from the secret, the request date, the region and the service.
package messagesign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// Algorithm names the scheme in the Authorization header.
	Algorithm = "MHL4-HMAC-SHA256"
	// TimeFormat is the layout of the signing timestamp.
	TimeFormat = "20060102T150405Z"
	// UnsignedPayload marks a request whose body is not hashed.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	HeaderContentSHA256 = "x-mhl-content-sha256"
	HeaderDate          = "x-mhl-date"
	HeaderMachineID     = "x-mhl-mid"
	HeaderHostname      = "x-mhl-hostname"
	HeaderNonce         = "x-mhl-nonce"
	HeaderHost          = "host"

	dateFormat     = "20060102"
	keyPrefix      = "MHL4"
	scopeTerminal  = "mhl4_request"
	credentialPart = "Credential="
)

// signedHeaders are the headers covered by the signature, sorted.
var signedHeaders = []string{
	HeaderHost,
	HeaderContentSHA256,
	HeaderDate,
	HeaderHostname,
	HeaderMachineID,
	HeaderNonce,
}

// Signature is what a request must carry to be accepted.
type Signature struct {
	// DateTime is sent as the x-mhl-date header.
	DateTime string
	// AuthHeader is sent as the Authorization header.
	AuthHeader string
}

// Sign signs a request for u at the current time.
func Sign(u *url.URL, method, key, secret, region, service, machineID, hostname, payloadHash, nonce string) (*Signature, error) {
	return signAt(time.Now().UTC(), u, method, key, secret, region, service, machineID, hostname, payloadHash, nonce)
}

func signAt(now time.Time, u *url.URL, method, key, secret, region, service, machineID, hostname, payloadHash, nonce string) (*Signature, error) {
	switch {
	case u == nil:
		return nil, errors.New("no url to sign")
	case u.Host == "":
		return nil, errors.Errorf("url %q has no host", u.String())
	case key == "":
		return nil, errors.New("access key must be provided")
	case secret == "":
		return nil, errors.New("secret must be provided")
	case method == "":
		return nil, errors.New("method must be provided")
	}

	dateTime := now.UTC().Format(TimeFormat)
	headers := map[string]string{
		HeaderHost:          u.Host,
		HeaderContentSHA256: payloadHash,
		HeaderDate:          dateTime,
		HeaderHostname:      hostname,
		HeaderMachineID:     machineID,
		HeaderNonce:         nonce,
	}
	sig := signature(method, u, headers, payloadHash, now, secret, region, service)
	auth := fmt.Sprintf("%s %s%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, credentialPart, key, scope(now, region, service),
		strings.Join(signedHeaders, ";"), sig)

	return &Signature{DateTime: dateTime, AuthHeader: auth}, nil
}

// Verify recomputes the hex signature for a received request. headers holds
// the request headers keyed by lower-case name; the host is taken from the
// host header when present and from rawURL otherwise. Callers compare the
// result against the Signature= part of the Authorization header.
func Verify(method, payloadHash, rawURL string, headers map[string]string, signedAt time.Time, secret, region, service string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "unable to parse url")
	}
	if secret == "" {
		return "", errors.New("secret must be provided")
	}
	lowered := make(map[string]string, len(headers))
	for k, v := range headers {
		lowered[strings.ToLower(k)] = v
	}
	if _, ok := lowered[HeaderHost]; !ok {
		lowered[HeaderHost] = u.Host
	}
	for _, h := range signedHeaders {
		if _, ok := lowered[h]; !ok {
			return "", errors.Errorf("missing signed header %q", h)
		}
	}
	return signature(method, u, lowered, payloadHash, signedAt.UTC(), secret, region, service), nil
}

func signature(method string, u *url.URL, headers map[string]string, payloadHash string, t time.Time, secret, region, service string) string {
	creq := canonicalRequest(method, u, headers, payloadHash)
	sum := sha256.Sum256([]byte(creq))
	toSign := strings.Join([]string{
		Algorithm,
		t.Format(TimeFormat),
		scope(t, region, service),
		hex.EncodeToString(sum[:]),
	}, "\n")
	return hex.EncodeToString(hmacSHA256(signingKey(secret, t, region, service), toSign))
}

func canonicalRequest(method string, u *url.URL, headers map[string]string, payloadHash string) string {
	var hdrs strings.Builder
	for _, h := range signedHeaders {
		hdrs.WriteString(h)
		hdrs.WriteByte(':')
		hdrs.WriteString(strings.TrimSpace(headers[h]))
		hdrs.WriteByte('\n')
	}
	return strings.Join([]string{
		strings.ToUpper(method),
		canonicalPath(u),
		canonicalQuery(u.Query()),
		hdrs.String(),
		strings.Join(signedHeaders, ";"),
		payloadHash,
	}, "\n")
}

func canonicalPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		return "/"
	}
	return p
}

func canonicalQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, escape(k)+"="+escape(v))
		}
	}
	return strings.Join(parts, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func scope(t time.Time, region, service string) string {
	return strings.Join([]string{t.Format(dateFormat), region, service, scopeTerminal}, "/")
}

func signingKey(secret string, t time.Time, region, service string) []byte {
	k := hmacSHA256([]byte(keyPrefix+secret), t.Format(dateFormat))
	k = hmacSHA256(k, region)
	k = hmacSHA256(k, service)
	return hmacSHA256(k, scopeTerminal)
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

package auth

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/identity"
	"github.com/bottlerocket-os/switchdog/pkg/messagesign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest(t *testing.T) Request {
	u, err := url.Parse("http://127.0.0.1:9000/brog.yaml")
	require.NoError(t, err)
	return Request{
		Endpoint:   u,
		Credential: Credential{Key: "ivegotthekey", Secret: "ivegotthesecret"},
		Service:    "brog",
		Identity:   identity.Identity{MachineID: "abc123", Hostname: "node-1"},
		Nonce:      NewNonce(),
	}
}

func TestSignHeaderSet(t *testing.T) {
	r := testRequest(t)
	h, err := Sign(r)
	require.NoError(t, err)

	assert.Equal(t, PayloadHash, h[messagesign.HeaderContentSHA256])
	assert.Equal(t, "abc123", h[messagesign.HeaderMachineID])
	assert.Equal(t, "node-1", h[messagesign.HeaderHostname])
	assert.Equal(t, r.Nonce, h[messagesign.HeaderNonce])
	assert.NotEmpty(t, h[messagesign.HeaderDate])
	assert.NotEmpty(t, h[HeaderAuthorization])
	assert.NotContains(t, h, HeaderCommit)

	signedAt, err := time.Parse(messagesign.TimeFormat, h[messagesign.HeaderDate])
	require.NoError(t, err)
	received := map[string]string{messagesign.HeaderHost: r.Endpoint.Host}
	for k, v := range h {
		received[strings.ToLower(k)] = v
	}
	expected, err := messagesign.Verify(Method, PayloadHash, r.Endpoint.String(), received, signedAt, "ivegotthesecret", DefaultRegion, "brog")
	require.NoError(t, err)
	assert.Contains(t, h[HeaderAuthorization], expected)
}

func TestSignFailure(t *testing.T) {
	r := testRequest(t)
	r.Credential.Key = ""
	_, err := Sign(r)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.Signature))
}

func TestSignRejectsBadIdentity(t *testing.T) {
	r := testRequest(t)
	r.Identity.Hostname = "node\n1"
	_, err := Sign(r)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.Parse))
}

func TestWithCommit(t *testing.T) {
	h := Headers{}
	require.NoError(t, h.WithCommit("123456"))
	assert.Equal(t, "123456", h[HeaderCommit])

	err := Headers{}.WithCommit("bad\r\ntoken")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.Parse))
}

func TestNonceIsDecimal32(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		n := NewNonce()
		assert.NotEmpty(t, n)
		assert.LessOrEqual(t, len(n), 10)
		assert.Equal(t, -1, strings.IndexFunc(n, func(r rune) bool { return r < '0' || r > '9' }))
		seen[n] = true
	}
	assert.Greater(t, len(seen), 60)
}

func TestCredentialEnabled(t *testing.T) {
	assert.False(t, Credential{Key: "k"}.Enabled())
	assert.True(t, Credential{Secret: "s"}.Enabled())
}

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/bottlerocket-os/switchdog/pkg/auth"
	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/internal/testoutput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOK(t *testing.T) {
	var received http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		w.Header().Set(auth.HeaderCommit, "123456")
		w.Write([]byte("clientConfig:\n  image: quay.io/fedora/fedora-bootc:41\n"))
	}))
	defer srv.Close()

	c := New(testoutput.Logger(t, "fetch"), 0)
	resp, err := c.Get(context.Background(), srv.URL+"/brog.yaml", auth.Headers{"x-mhl-nonce": "99"})
	require.NoError(t, err)
	assert.True(t, resp.HasCommit)
	assert.Equal(t, "123456", resp.Commit)
	assert.Contains(t, string(resp.Body), "fedora-bootc")
	assert.Equal(t, "99", received.Get("x-mhl-nonce"))
}

func TestGetWithoutCommit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("clientConfig: {}\n"))
	}))
	defer srv.Close()

	resp, err := New(testoutput.Logger(t, "fetch"), 0).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.False(t, resp.HasCommit)
	assert.Empty(t, resp.Commit)
}

func TestGetNonOK(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusUnauthorized, http.StatusInternalServerError, http.StatusNoContent} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(auth.HeaderCommit, "should-not-be-seen")
			w.WriteHeader(status)
		}))
		_, err := New(testoutput.Logger(t, "fetch"), 0).Get(context.Background(), srv.URL, nil)
		srv.Close()

		require.Error(t, err)
		assert.True(t, fault.Is(err, fault.Transport))
		assert.Contains(t, err.Error(), strconv.Itoa(status))
		assert.Contains(t, err.Error(), http.StatusText(status))
		assert.Contains(t, err.Error(), srv.URL)
	}
}

func TestGetUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(testoutput.Logger(t, "fetch"), 0).Get(context.Background(), url, nil)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.Transport))
}

package apitest

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_LoginAndMe(t *testing.T) {
	b := New()
	defer b.Close()
	b.AddDoctor("D123", "Dr Who", "secret")

	resp, err := http.PostForm(b.URL+"/api/auth/token", url.Values{"username": {"D123"}, "password": {"secret"}})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.AccessToken)

	req, _ := http.NewRequest(http.MethodGet, b.URL+"/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.AccessToken)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = me.Body.Close() }()
	assert.Equal(t, http.StatusOK, me.StatusCode)

	b.Revoke(body.AccessToken)
	again, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = again.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, again.StatusCode)

	assert.Equal(t, 2, b.Requests("/api/auth/me"))
	assert.Equal(t, 3, b.TotalRequests())
}

func TestBackend_BadPassword(t *testing.T) {
	b := New()
	defer b.Close()
	b.AddDoctor("D123", "Dr Who", "secret")

	resp, err := http.PostForm(b.URL+"/api/auth/token", url.Values{"username": {"D123"}, "password": {"nope"}})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBackend_FailNext(t *testing.T) {
	b := New()
	defer b.Close()

	b.FailNext("/api/auth/register", http.StatusInternalServerError)
	resp, err := http.Post(b.URL+"/api/auth/register", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = http.Post(b.URL+"/api/auth/register", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/emailvision/internal/emailvision/evtest"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"email=a@example.com", "filter=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email": "a@example.com", "filter": "a=b", "empty": ""}, params)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}

func startFake(t *testing.T) (*evtest.Server, string) {
	t.Helper()
	fake := evtest.NewServer("apiccmd", evtest.Credentials{Login: "u", Password: "p", Key: "k"})
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	t.Setenv("EMAILVISION_API_LOGIN", "u")
	t.Setenv("EMAILVISION_API_PASSWORD", "p")
	t.Setenv("EMAILVISION_API_KEY", "k")
	return fake, u.Host
}

func TestRun_CallsAndCloses(t *testing.T) {
	fake, host := startFake(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"--server", host, "--insecure",
		"--path", "member/getMemberByEmail/",
		"--param", "email=a@example.com",
	}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "GET member/getMemberByEmail/")
	assert.Equal(t, 0, fake.ActiveSessions())
}

func TestRun_OpenOnly(t *testing.T) {
	fake, host := startFake(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--server", host, "--insecure"}, &out))
	assert.Contains(t, out.String(), "session opened and closed")
	assert.Equal(t, 0, fake.ActiveSessions())
}

func TestRun_InvalidMethodStillCloses(t *testing.T) {
	fake, host := startFake(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"--server", host, "--insecure",
		"--path", "member/getMemberByEmail/", "--method", "put",
	}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP method")
	assert.Equal(t, 0, fake.ActiveSessions())
}

func TestRun_MissingServer(t *testing.T) {
	t.Setenv("EMAILVISION_SERVER_URL", "")

	err := run(context.Background(), nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server URL must be specified")
}

package statsd

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"  bakery.auth  ", "bakery.auth"},
		{"..bakery..", "bakery"},
		{".", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizePrefix(tc.in), "sanitizePrefix(%q)", tc.in)
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{" auth/login ", "auth_login"},
		{"auth..login", "auth.login"},
		{"two  spaces", "two__spaces"},
		{"auth/login/success", "auth_login_success"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeMetricName(tc.in), "normalizeMetricName(%q)", tc.in)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env": "prod",
		// Padded key and value exercise the trimming path.
		" service ": " auth ",
	}
	local := map[string]string{
		"result": " success ",
		"":       "dropped",
		"env":    "stage",
	}

	assert.Equal(t, "|#env:stage,result:success,service:auth", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
}

func TestCloneTagsReturnsIndependentCopy(t *testing.T) {
	t.Parallel()

	original := map[string]string{"env": "prod", "": "dropped"}

	cloned := cloneTags(original)
	require.NotNil(t, cloned)
	assert.NotContains(t, cloned, "")

	cloned["env"] = "stage"
	assert.Equal(t, "prod", original["env"])
}

func TestClientLifecycle(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{enabled: true, conn: clientConn}
	assert.True(t, client.Enabled())

	require.NoError(t, client.Close())
	assert.False(t, client.Enabled())

	// Close is idempotent and metrics after Close are dropped silently.
	require.NoError(t, client.Close())
	client.Count("auth.login.success", 1, nil)
}

func TestNilClientIsInert(t *testing.T) {
	t.Parallel()

	var client *Client
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
	client.Count("auth.login.success", 1, nil)
	client.Gauge("sessions.active", 3, nil)
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

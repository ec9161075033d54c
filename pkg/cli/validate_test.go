package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	path := writeConfig(t, "good.json", `{
		"id": "demo",
		"port": 4100,
		"routes": [{"method": "GET", "path": "/ping", "response": "pong"}]
	}`)

	assert.NoError(t, runValidate(validateCmd, []string{path}))
}

func TestValidateRejectsBadConfig(t *testing.T) {
	missing := writeConfig(t, "bad.json", `{"port": 4100}`)
	assert.Error(t, runValidate(validateCmd, []string{missing}), "missing id must fail")

	yaml := writeConfig(t, "bad.yaml", "id: demo\nroutes:\n  - method: GET\n    path: no-slash\n")
	assert.Error(t, runValidate(validateCmd, []string{yaml}))
}

func TestServerLabel(t *testing.T) {
	assert.Equal(t, "srv", serverLabel("srv", ""))
	assert.Equal(t, "srv", serverLabel("srv", "srv"))
	assert.Equal(t, "Payments (srv)", serverLabel("srv", "Payments"))
}

func TestListenURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080", listenURL("127.0.0.1", 8080))
	assert.Equal(t, "http://192.168.1.20:9000", listenURL("192.168.1.20", 9000))
	assert.Equal(t, "http://mocks.internal:8080", listenURL("mocks.internal", 8080))
	// Wildcard binds render as localhost, which is what a browser can open.
	assert.Equal(t, "http://127.0.0.1:8080", listenURL("0.0.0.0", 8080))
	assert.Equal(t, "http://127.0.0.1:8080", listenURL("", 8080))
	assert.Equal(t, "http://[::1]:8080", listenURL("::1", 8080))
}

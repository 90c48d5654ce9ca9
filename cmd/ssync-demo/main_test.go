package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFromFlags(t *testing.T) {
	opts := &runOptions{
		proxyURL: "https://proxy.example.org",
		userID:   "@alice:example.org",
		logLevel: "debug",
	}

	cfg, err := opts.session()
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.example.org", cfg.ProxyURL)
	assert.Equal(t, 20*time.Second, cfg.PollTimeout)
	require.Len(t, cfg.Lists, 1)
	assert.Equal(t, 0, cfg.Lists[0].Index)
}

func TestSessionFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	data := []byte("proxy_url: https://file.example.org\nuser_id: \"@bob:example.org\"\nlists:\n  - index: 3\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	opts := &runOptions{configFile: path, proxyURL: "https://flag.example.org"}
	cfg, err := opts.session()
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example.org", cfg.ProxyURL)
	assert.Equal(t, "@bob:example.org", cfg.UserID.String())
	require.Len(t, cfg.Lists, 1)
	assert.Equal(t, 3, cfg.Lists[0].Index)
}

func TestSessionRequiresProxy(t *testing.T) {
	opts := &runOptions{userID: "@alice:example.org"}
	_, err := opts.session()
	assert.Error(t, err)
}

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "sim", cfg.Bank.Backend)
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
minimumOffer: "0.01"
store:
  driver: sqlite
  path: /var/lib/matchfund/commitments.db
bank:
  backend: evm
  rpcUrl: https://rpc.example.org
  privateKey: "0xabc123"
  pollInterval: 5s
  pollTimeout: 10m
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "0.01", cfg.MinimumOffer)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "evm", cfg.Bank.Backend)
	assert.Equal(t, 5*time.Second, cfg.Bank.PollInterval.Duration)
	assert.Equal(t, 10*time.Minute, cfg.Bank.PollTimeout.Duration)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown store driver": `
store:
  driver: redis
`,
		"sqlite without path": `
store:
  driver: sqlite
`,
		"unknown bank backend": `
bank:
  backend: carrier-pigeon
`,
		"evm without credentials": `
bank:
  backend: evm
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

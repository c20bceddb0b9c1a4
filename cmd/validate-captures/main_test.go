package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const capturesYAML = `
captures:
  - path: /stripe/events
  - path: /github/*
    methods: [post]
    status_code: 202
`

func writeCaptures(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "captures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun(t *testing.T) {
	t.Run("lists every route", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, writeCaptures(t, capturesYAML), nil)

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Loaded 2 capture route(s)")
		assert.Contains(t, out.String(), "Path: /github/*")
		assert.Contains(t, out.String(), "Status Code:  202")
	})

	t.Run("required paths are looked up", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, writeCaptures(t, capturesYAML), []string{"/github/*"})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "✓ /github/*")
		assert.Contains(t, out.String(), "Methods:      POST")
	})

	t.Run("error - required path not declared", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, writeCaptures(t, capturesYAML), []string{"/stripe/events", "/shopify/orders"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "/shopify/orders")
	})

	t.Run("error - invalid file", func(t *testing.T) {
		err := run(&bytes.Buffer{}, writeCaptures(t, "captures: []\n"), nil)

		assert.Error(t, err)
	})
}

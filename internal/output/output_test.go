package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	old := Stdout
	Stdout = &buf
	t.Cleanup(func() { Stdout = old })
	fn()
	return buf.String()
}

func TestMessageSymbols(t *testing.T) {
	out := captureStdout(t, func() {
		Success("imported %d identities", 3)
	})
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "imported 3 identities")

	out = captureStdout(t, func() {
		Warning("skipped %d", 1)
	})
	assert.Contains(t, out, "⚠")

	out = captureStdout(t, func() {
		Error("boom")
	})
	assert.Contains(t, out, "✗")

	out = captureStdout(t, func() {
		Info("scanning")
	})
	assert.Contains(t, out, "→")
}

func TestKeyValue(t *testing.T) {
	out := captureStdout(t, func() {
		KeyValue("Overrides", "42")
	})
	assert.Contains(t, out, "Overrides")
	assert.Contains(t, out, "42")
}

package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temporaldebt/core/internal/temporal"
)

func writeScript(t *testing.T, dir, sub, name, src string) {
	t.Helper()
	p := filepath.Join(dir, sub)
	require.NoError(t, os.MkdirAll(p, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p, name), []byte(src), 0o644))
}

func TestShippedScripts(t *testing.T) {
	e, err := NewEngine("../../scripts", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	a, ok := e.EchoAccuracy(0)
	require.True(t, ok)
	assert.Equal(t, 1.0, a)
	a, ok = e.EchoAccuracy(9)
	require.True(t, ok)
	assert.Equal(t, 0.5, a)

	assert.Equal(t, 2, e.ShadowLimit(21, 10))
	assert.Equal(t, 0, e.ShadowLimit(9.9, 10))
}

func TestMissingDirectoryLoadsNothing(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.False(t, e.Has("echo_accuracy"))
	fallback := temporal.LinearAccuracy(0.1, 0.5)
	curve := e.AccuracyCurve(fallback)
	assert.Equal(t, fallback(3), curve(3))
	assert.Equal(t, 1, e.ShadowLimit(15, 10))
}

func TestBrokenHookFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "echo", "bad.lua", `
function echo_accuracy(tier)
    if tier > 1 then error("boom") end
    return "high"
end`)
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	curve := e.AccuracyCurve(func(int) float64 { return 0.42 })
	assert.Equal(t, 0.42, curve(0), "non-number result")
	assert.Equal(t, 0.42, curve(3), "runtime error")
}

func TestSyntaxErrorFailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "core", "broken.lua", `function (`)
	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}

func TestDefaultShadowLimit(t *testing.T) {
	assert.Equal(t, 0, DefaultShadowLimit(50, 0))
	assert.Equal(t, 3, DefaultShadowLimit(30, 10))
}

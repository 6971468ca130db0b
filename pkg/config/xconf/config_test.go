package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLimiter struct {
	Algorithm string        `koanf:"algorithm"`
	Capacity  uint64        `koanf:"capacity"`
	Window    time.Duration `koanf:"window"`
}

const testYAML = `
limiter:
  algorithm: sliding_window
  capacity: 3
  window: 2s
`

const testJSON = `{"limiter": {"algorithm": "fixed_window", "capacity": 5, "window": "500ms"}}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_YAML(t *testing.T) {
	path := writeTemp(t, "limits.yml", testYAML)

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, FormatYAML, cfg.Format())
	assert.True(t, cfg.Exists("limiter.capacity"))

	var l testLimiter
	require.NoError(t, cfg.Unmarshal("limiter", &l))
	assert.Equal(t, testLimiter{Algorithm: "sliding_window", Capacity: 3, Window: 2 * time.Second}, l)
	assert.False(t, cfg.Exists("limiter.burst"))
}

func TestNew_JSON(t *testing.T) {
	path := writeTemp(t, "limits.json", testJSON)

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Format())

	var l testLimiter
	require.NoError(t, cfg.Unmarshal("limiter", &l))
	assert.Equal(t, 500*time.Millisecond, l.Window)
	assert.Equal(t, uint64(5), l.Capacity)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("limits.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeTemp(t, "bad.json", "{not json"))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())

	var l testLimiter
	require.NoError(t, cfg.Unmarshal("limiter", &l))
	assert.Equal(t, testLimiter{}, l)

	_, err = NewFromBytes([]byte(testYAML), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUnmarshal_Failure(t *testing.T) {
	cfg, err := NewFromBytes([]byte("limiter:\n  capacity: lots\n"), FormatYAML)
	require.NoError(t, err)

	var l testLimiter
	assert.ErrorIs(t, cfg.Unmarshal("limiter", &l), ErrUnmarshalFailed)
}

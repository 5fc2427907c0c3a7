package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewLogger(&buf, false, slog.LevelInfo, false)
		logger.Debug("hidden")
		logger.Info("built", slog.String("name", "app"))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "built", entry["msg"])
		assert.Equal(t, "app", entry["name"])
		assert.NotContains(t, entry, slog.SourceKey)
	})

	t.Run("text with source", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewLogger(&buf, true, slog.LevelDebug, true)
		logger.Debug("visible")
		assert.Contains(t, buf.String(), "msg=visible")
		assert.Contains(t, buf.String(), "source=")
	})
}

package app

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelInfo, parseLevel(nil))
	require.Equal(t, slog.LevelDebug, parseLevel(&Config{LogLevel: "debug"}))
	require.Equal(t, slog.LevelWarn, parseLevel(&Config{LogLevel: "WARN"}))
	require.Equal(t, slog.LevelError, parseLevel(&Config{LogLevel: "error"}))
	require.Equal(t, slog.LevelInfo, parseLevel(&Config{LogLevel: "verbose"}))
}

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"none", LevelNone},
		{"garbage", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	l, err := New(LevelDebug, path, "test")
	require.NoError(t, err)

	l.Info("hello %s", "world")
	l.Debug("details %d", 42)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "hello world")
	assert.Contains(t, content, "details 42")
	assert.Contains(t, content, "[test]")
	assert.Contains(t, content, "[INFO]")
}

func TestLoggerLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	l, err := New(LevelWarn, path, "")
	require.NoError(t, err)

	l.Debug("dropped")
	l.Info("dropped too")
	l.Warn("kept")
	l.Error("kept too")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.NotContains(t, content, "dropped")
	assert.Contains(t, content, "kept")
	assert.Equal(t, 2, strings.Count(content, "\n"))
}

func TestLoggerNoneIsSilent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	l, err := New(LevelNone, path, "")
	require.NoError(t, err)

	l.Error("never written")
	require.NoError(t, l.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWithPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	l, err := New(LevelInfo, path, "bot")
	require.NoError(t, err)

	child := l.WithPrefix("telegram")
	child.Info("polling")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[bot:telegram]")
}

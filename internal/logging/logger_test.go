package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	l, err := New(Options{Level: "error", Verbose: true})
	require.NoError(t, err)
	defer func() { _ = l.Sync() }()

	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(Options{Level: "warn", Format: FormatConsole})
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestForNamesChildLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	For(zap.New(core), CategoryStore).Info("opened")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "store", entries[0].LoggerName)
}

func TestForNilIsNop(t *testing.T) {
	l := For(nil, CategoryPipeline)
	require.NotNil(t, l)
	l.Info("discarded")
}

func TestTimerStopWithThreshold(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	timer := StartTimer(zap.New(core), "slow-op")
	timer.start = time.Now().Add(-time.Second)

	elapsed := timer.StopWithThreshold(10 * time.Millisecond)
	assert.GreaterOrEqual(t, elapsed, time.Second)

	entries := logs.FilterMessage("slow operation").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "slow-op", entries[0].ContextMap()["op"])
}

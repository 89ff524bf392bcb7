package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"production", "PROD", "", "local"} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
	prod, _ := New("production")
	assert.False(t, prod.SugaredLogger.Desugar().Core().Enabled(zap.DebugLevel))
	dev, _ := New("local")
	assert.True(t, dev.SugaredLogger.Desugar().Core().Enabled(zap.DebugLevel))
}

func TestWith_KeyValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("run_id", "r1").Warn("section rate limited", "section", "Claims")
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "section rate limited", entries[0].Message)
	assert.Equal(t, map[string]any{"run_id": "r1", "section": "Claims"}, entries[0].ContextMap())
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil).SugaredLogger)
	l := Nop()
	assert.Same(t, l, OrNop(l))
}

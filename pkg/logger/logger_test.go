package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	req := require.New(t)

	req.Equal(zapcore.DebugLevel, ParseLevel("DEBUG"))
	req.Equal(zapcore.WarnLevel, ParseLevel(" warning "))
	req.Equal(zapcore.ErrorLevel, ParseLevel("error"))
	req.Equal(zapcore.InfoLevel, ParseLevel(""))
	req.Equal(zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNop(t *testing.T) {
	log := Nop().With("component", "test")
	log.Info("nothing is written", "key", "value")
	require.NoError(t, log.Sync())
}

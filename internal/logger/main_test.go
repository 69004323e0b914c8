package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsBadConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Log
		wantErr error
	}{
		{
			name:    "missing service name",
			cfg:     Log{LogLevel: "info", AppName: "test"},
			wantErr: ErrServiceNameIsEmpty,
		},
		{
			name:    "missing app name",
			cfg:     Log{LogLevel: "info", ServiceName: "test"},
			wantErr: ErrAppNameIsEmpty,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Init(tc.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestInitUnknownLevel(t *testing.T) {
	err := Init(Log{LogLevel: "loud", ServiceName: "test", AppName: "test"})
	assert.Error(t, err)
}

func TestLevelWriterRouting(t *testing.T) {
	var errBuf, infoBuf, warnBuf, traceBuf bytes.Buffer

	lw := &LevelWriter{
		ErrorWriter: &errBuf,
		InfoWriter:  &infoBuf,
		WarnWriter:  &warnBuf,
		TraceWriter: &traceBuf,
	}

	testCases := []struct {
		level zerolog.Level
		buf   *bytes.Buffer
	}{
		{zerolog.InfoLevel, &infoBuf},
		{zerolog.DebugLevel, &infoBuf},
		{zerolog.WarnLevel, &warnBuf},
		{zerolog.ErrorLevel, &errBuf},
		{zerolog.FatalLevel, &errBuf},
		{zerolog.TraceLevel, &traceBuf},
	}

	for _, tc := range testCases {
		t.Run(tc.level.String(), func(t *testing.T) {
			errBuf.Reset()
			infoBuf.Reset()
			warnBuf.Reset()
			traceBuf.Reset()

			n, err := lw.WriteLevel(tc.level, []byte("x"))
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.Equal(t, "x", tc.buf.String())
		})
	}

	// disabled level writes nowhere
	n, err := lw.WriteLevel(zerolog.Disabled, []byte("x"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

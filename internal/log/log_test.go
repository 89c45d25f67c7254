package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestHandlerFormatsFields(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf)

	entry := &log.Entry{
		Level:     log.WarnLevel,
		Message:   "cache write failed",
		Timestamp: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Fields:    log.Fields{"tracer": 7, "model": "traj_s12.0"},
	}
	assert.NoError(t, h.HandleLog(entry))
	assert.Equal(t, "2024-03-01 12:30:00 W cache write failed model=traj_s12.0 tracer=7\n", buf.String())
}

func TestInitLoggerLevels(t *testing.T) {
	t.Setenv(EnvLevel, "")

	assert.NoError(t, InitLogger("DEBUG"))
	assert.NoError(t, InitLogger(""))
	assert.Error(t, InitLogger("chatty"))

	t.Setenv(EnvLevel, "warn")
	assert.NoError(t, InitLogger(""))
}

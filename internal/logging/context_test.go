package logging

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })
	return &buf
}

func TestGinContextHelpersIncludeRequestFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("request_id", "req-abc123")
	c.Set("start_time", time.Now().Add(-10*time.Millisecond))

	Info(c).Msg("session created")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-abc123"`)
	assert.Contains(t, out, `"duration"`)
	assert.Contains(t, out, `"message":"session created"`)
}

func TestGinContextHelpersTolerateMissingValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	Error(c).Msg("bad request")

	out := buf.String()
	assert.NotContains(t, out, "request_id")
	assert.Contains(t, out, `"message":"bad request"`)
}

func TestGinContextHelpersNilContext(t *testing.T) {
	buf := captureLogs(t)

	Warn(nil).Msg("no context")

	assert.Contains(t, buf.String(), `"message":"no context"`)
}

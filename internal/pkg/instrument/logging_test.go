package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, fields ...string) *slog.Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(newContextHandler(&maskHandler{next: h, masker: NewMasker(fields)}, "goshen-test"))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestLogging_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, "pin", " Authorization ")

	log.Info("verify", "pin", "1234", "identity_id", "u-1",
		"body", `{"pin":"9999","nested":{"authorization":"Bearer x"}}`,
		"headers", map[string]string{"Authorization": "Bearer y", "Accept": "*/*"},
	)

	line := decodeLine(t, &buf)
	assert.Equal(t, "***", line["pin"])
	assert.Equal(t, "u-1", line["identity_id"])
	assert.JSONEq(t, `{"pin":"***","nested":{"authorization":"***"}}`, line["body"].(string))
	assert.Equal(t, map[string]any{"Authorization": "***", "Accept": "*/*"}, line["headers"])
	assert.Equal(t, "goshen-test", line["service"])
}

func TestLogging_WithAttrsMasked(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, "pin").With("pin", "4321")

	log.Info("issued")

	assert.Equal(t, "***", decodeLine(t, &buf)["pin"])
}

func TestLogging_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)

	ctx := SetCorrelationID(context.Background(), "cid-123")
	log.InfoContext(ctx, "hello")

	assert.Equal(t, "cid-123", decodeLine(t, &buf)["_cID"])
	assert.Equal(t, "cid-123", GetCorrelationID(ctx))
	assert.Empty(t, GetCorrelationID(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestNew_DisabledReturnsNoop(t *testing.T) {
	ins, err := New(context.Background(), &Config{ServiceName: "goshen-test"})
	require.NoError(t, err)

	_, span := ins.Tracer("t").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, ins.Shutdown(context.Background()))
}

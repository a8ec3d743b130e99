package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConServicio(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "tienda-club", Output: &buf})

	l.Info().Str("order_id", "o-1").Msg("orden creada")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tienda-club", line["service"])
	assert.Equal(t, "o-1", line["order_id"])
	assert.Equal(t, "orden creada", line["message"])
}

func TestNew_RespetaNivel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Output: &buf})

	l.Info().Msg("no debe salir")
	assert.Zero(t, buf.Len())
}

func TestParseLevel_InvalidoUsaInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel("ruidoso"))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
}

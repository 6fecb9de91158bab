package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", "json", &buf)

	log.WithField("user_id", "u1").Info("wallet read")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "wallet read", entry["msg"])
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewFallsBackToInfo(t *testing.T) {
	log := NewWithOutput("loud", "text", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	UseJSON(true)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		UseJSON(false)
		SetLevel(LevelInfo)
	})

	WithFields(Fields{"candidate_id": "c-1"}).Infof("moved to %s", "INTERVIEW")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "c-1", entry["candidate_id"])
	assert.Equal(t, "moved to INTERVIEW", entry["msg"])
}

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel(LevelInfo)
	})

	SetLevel(ParseLevel("warn"))
	Info("hidden")
	assert.Empty(t, buf.String())

	Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

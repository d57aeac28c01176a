package celldb_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/hupe1980/celldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := celldb.NewJSONLogger(&buf, slog.LevelInfo)

	l.WithVersion(7).LogPersist(context.Background(), "tables/t.cdb", 3, 128, time.Millisecond, nil)
	l.Debug("dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "persist completed", rec["msg"])
	assert.Equal(t, "tables/t.cdb", rec["table"])
	assert.EqualValues(t, 3, rec["rows"])
	assert.EqualValues(t, 128, rec["bytes"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := celldb.NewTextLogger(&buf, slog.LevelDebug)

	l.LogLoad(context.Background(), "tables/t.cdb", 2, time.Millisecond, nil)

	assert.Contains(t, buf.String(), "rows=2")
	assert.Contains(t, buf.String(), "table=tables/t.cdb")
}

// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicblock-labs/solana-upgrade-v3/log"
)

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogger(log.JSONHandler(&buf))

	logger.Info("commit done", "accounts", 3)

	var record map[string]any
	require.Nil(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "commit done", record["msg"])
	assert.Equal(t, float64(3), record["accounts"])
	assert.Equal(t, "INFO", record["level"])
}

func TestLogfmtHandlerWithLevel(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(log.LevelWarn)
	logger := log.NewLogger(log.LogfmtHandlerWithLevel(&buf, level))

	logger.Info("ignored")
	assert.Zero(t, buf.Len())

	logger.Warn("kept", "addr", "abc")
	assert.True(t, strings.Contains(buf.String(), "msg=kept"))
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	log.SetDefault(log.NewLogger(log.LogfmtHandler(&buf)))
	defer log.SetDefault(log.NewLogger(log.DiscardHandler()))

	logger := log.WithContext("pkg", "seqlock")
	logger.Info("read retried")

	assert.True(t, strings.Contains(buf.String(), "pkg=seqlock"))
}

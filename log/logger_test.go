// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalHandler(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, false))

	l.Info("stake recorded", "tokenID", uint64(1), "reward", big.NewInt(1000))

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "INFO ["))
	assert.Contains(t, line, "stake recorded")
	assert.Contains(t, line, "tokenID=1")
	assert.Contains(t, line, "reward=1000")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTerminalHandlerLevel(t *testing.T) {
	out := new(bytes.Buffer)
	var lvl slog.LevelVar
	lvl.Set(LevelWarn)
	l := NewLogger(NewTerminalHandlerWithLevel(out, &lvl, false))

	l.Info("dropped")
	assert.Empty(t, out.String())

	l.Warn("kept")
	assert.Contains(t, out.String(), "kept")
}

func TestJSONHandler(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(JSONHandler(out))

	l.Debug("claimed", "amount", uint256.NewInt(42), "nil", (*big.Int)(nil))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "debug", rec["lvl"])
	assert.Equal(t, "claimed", rec["msg"])
	assert.Equal(t, "42", rec["amount"])
	assert.Equal(t, "<nil>", rec["nil"])
	assert.Contains(t, rec, "t")
}

func TestWithContextFollowsRoot(t *testing.T) {
	old := Root()
	defer SetDefault(old)

	ctxLogger := WithContext("pkg", "test")

	out := new(bytes.Buffer)
	SetDefault(NewLogger(NewTerminalHandler(out, false)))

	ctxLogger.With("k", "v").Info("hello")
	assert.Contains(t, out.String(), "pkg=test")
	assert.Contains(t, out.String(), "k=v")
}

func TestOddAttributes(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, false))
	l.Info("odd", "key")
	assert.Contains(t, out.String(), errorKey)
}

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(LegacyLevelCrit))
	assert.Equal(t, LevelInfo, FromLegacyLevel(LegacyLevelInfo))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
	assert.Equal(t, LevelCrit, FromLegacyLevel(-1))
}

func TestFormatSlogValue(t *testing.T) {
	assert.Equal(t, `"two words"`, FormatSlogValue(slog.StringValue("two words")))
	assert.Equal(t, `""`, FormatSlogValue(slog.StringValue("")))
	assert.Equal(t, "7", FormatSlogValue(slog.AnyValue(uint256.NewInt(7))))
	assert.Equal(t, "<nil>", FormatSlogValue(slog.AnyValue(nil)))
}

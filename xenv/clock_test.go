// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	_ TimeTraveler = (*ManualClock)(nil)
	_ TimeTraveler = (*OffsetClock)(nil)
	_ Clock        = SystemClock{}
)

func TestManualClock(t *testing.T) {
	c := NewManualClock(100)
	assert.Equal(t, uint64(100), c.Now())

	assert.Equal(t, uint64(160), c.IncreaseTime(60))
	c.Set(5)
	assert.Equal(t, uint64(5), c.Now())

	assert.Equal(t, ^uint64(0), c.IncreaseTime(^uint64(0)))
}

func TestOffsetClock(t *testing.T) {
	c := NewOffsetClock()
	c.wall = func() time.Time { return time.Unix(1_700_000_000, 0) }

	assert.Equal(t, uint64(1_700_000_000), c.Now())
	assert.Equal(t, uint64(1_700_000_000+1_762_574_802), c.IncreaseTime(1_762_574_802))
	assert.Equal(t, uint64(1_762_574_802), c.Offset())
}

func TestSystemClock(t *testing.T) {
	before := uint64(time.Now().Unix())
	assert.GreaterOrEqual(t, SystemClock{}.Now(), before)
}

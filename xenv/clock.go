// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"sync"
	"time"
)

// Clock supplies the ledger time, in unix seconds.
type Clock interface {
	Now() uint64
}

// TimeTraveler is a clock that can be fast-forwarded.
type TimeTraveler interface {
	Clock
	// IncreaseTime moves the clock forward and returns the new time.
	IncreaseTime(seconds uint64) uint64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() uint64 { return uint64(time.Now().Unix()) }

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *ManualClock) IncreaseTime(seconds uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = saturatingAdd(c.now, seconds)
	return c.now
}

// OffsetClock is the wall clock shifted by an accumulated offset.
type OffsetClock struct {
	mu     sync.Mutex
	offset uint64
	wall   func() time.Time
}

func NewOffsetClock() *OffsetClock {
	return &OffsetClock{wall: time.Now}
}

func (c *OffsetClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return saturatingAdd(uint64(c.wall().Unix()), c.offset)
}

func (c *OffsetClock) IncreaseTime(seconds uint64) uint64 {
	c.mu.Lock()
	c.offset = saturatingAdd(c.offset, seconds)
	c.mu.Unlock()
	return c.Now()
}

// Offset returns how far the clock runs ahead of the wall clock.
func (c *OffsetClock) Offset() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}

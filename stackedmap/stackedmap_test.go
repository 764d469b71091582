// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func M(a ...any) []any { return a }

func TestStackedMap(t *testing.T) {
	src := map[string]string{"foo": "bar"}
	sm := New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	assert.Equal(t, 0, sm.Depth())
	assert.Equal(t, M("bar", true, nil), M(sm.Get("foo")))
	assert.Equal(t, M("", false, nil), M(sm.Get("nope")))

	assert.Equal(t, 0, sm.Push())
	sm.Put("foo", "baz")
	sm.Put("foo", "qux")
	assert.Equal(t, M("qux", true, nil), M(sm.Get("foo")))

	assert.Equal(t, 1, sm.Push())
	sm.Put("foo", "l2")
	sm.Put("new", "v")
	assert.Equal(t, 2, sm.Depth())
	assert.Equal(t, M("l2", true, nil), M(sm.Get("foo")))

	sm.Pop()
	assert.Equal(t, M("qux", true, nil), M(sm.Get("foo")))
	assert.Equal(t, M("", false, nil), M(sm.Get("new")))

	sm.PopTo(0)
	assert.Equal(t, M("bar", true, nil), M(sm.Get("foo")))
	assert.Equal(t, 0, sm.Depth())
}

func TestStackedMapJournal(t *testing.T) {
	sm := New(func(int) (int, bool, error) { return 0, false, nil })

	sm.Push()
	sm.Put(1, 10)
	sm.Push()
	sm.Put(2, 20)
	sm.Put(1, 11)

	assert.Equal(t, []JournalEntry[int, int]{
		{1, 10},
		{2, 20},
		{1, 11},
	}, sm.Journal())

	sm.Pop()
	assert.Equal(t, []JournalEntry[int, int]{{1, 10}}, sm.Journal())
}

// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/test/testchain"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

func newServer(t *testing.T) (*testchain.Chain, *Subscriptions, *httptest.Server) {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)

	subs := New([]string{"*"})
	chain.Runtime().AddReceiptWriter(subs)

	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		subs.Close()
		ts.Close()
		chain.Close()
	})
	return chain, subs, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/event", RawQuery: query}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *SubscriptionEvent {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev SubscriptionEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	return &ev
}

func TestSubscribeEvent(t *testing.T) {
	chain, subs, ts := newServer(t)
	all := dial(t, ts, "")
	stakes := dial(t, ts, "addr="+builtin.Staker.Address.String())
	require.Eventually(t, func() bool { return subs.count() == 2 }, time.Second, 10*time.Millisecond)

	owner := chain.Accounts()[1].Address
	id, err := chain.MintAndStake(owner)
	require.NoError(t, err)

	// mint transfer, approval, custody transfer, staked
	names := make([]string, 0, 4)
	for range 4 {
		ev := readEvent(t, all)
		names = append(names, ev.Name)
		assert.Equal(t, owner, ev.Meta.TxOrigin)
	}
	assert.Equal(t, []string{"Transfer", "Approval", "Transfer", "Staked"}, names)

	ev := readEvent(t, stakes)
	assert.Equal(t, "Staked", ev.Name)
	assert.Equal(t, builtin.Staker.Address, ev.Address)
	assert.Equal(t, owner, thor.MustParseAddress(ev.Decoded["staker"].(string)))
	assert.Equal(t, thor.Uint64ToBytes32(uint64(id)), ev.Topics[2])
	assert.Equal(t, chain.Runtime().BlockNumber(), ev.Meta.BlockNumber)
}

func TestSubscribeEventByTopic(t *testing.T) {
	chain, subs, ts := newServer(t)

	staked, ok := builtin.Staker.ABI.EventByName("Staked")
	require.True(t, ok)
	conn := dial(t, ts, "t0="+staked.ID().String())
	require.Eventually(t, func() bool { return subs.count() == 1 }, time.Second, 10*time.Millisecond)

	_, err := chain.MintAndStake(chain.Accounts()[2].Address)
	require.NoError(t, err)

	ev := readEvent(t, conn)
	assert.Equal(t, "Staked", ev.Name)
	assert.Equal(t, staked.ID(), ev.Topics[0])
}

func TestBadFilter(t *testing.T) {
	_, _, ts := newServer(t)

	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/event", RawQuery: "t1=0xzz"}
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRevertedReceiptIsIgnored(t *testing.T) {
	subs := New(nil)
	sub := &eventSub{filter: &EventFilter{}, msgs: make(chan []byte, 1), gone: make(chan struct{})}
	require.True(t, subs.add(sub))

	receipt := &tx.Receipt{
		Reverted: true,
		Events:   tx.Events{{Address: builtin.Staker.Address, Topics: []thor.Bytes32{{1}}}},
	}
	require.NoError(t, subs.WriteReceipt(receipt))
	assert.Empty(t, sub.msgs)

	receipt.Reverted = false
	require.NoError(t, subs.WriteReceipt(receipt))
	assert.Len(t, sub.msgs, 1)

	// a full backlog drops the subscriber
	require.NoError(t, subs.WriteReceipt(receipt))
	select {
	case <-sub.gone:
	default:
		t.Fatal("slow subscriber was not dropped")
	}
	subs.remove(sub)
	subs.Close()
}

func TestCloseDisconnects(t *testing.T) {
	_, subs, ts := newServer(t)
	conn := dial(t, ts, "")
	require.Eventually(t, func() bool { return subs.count() == 1 }, time.Second, 10*time.Millisecond)

	subs.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)
	assert.Equal(t, 0, subs.count())

	// new subscribers are refused
	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/event"}
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestEventFilterMatch(t *testing.T) {
	addr := thor.BytesToAddress([]byte("addr"))
	topic := thor.BytesToBytes32([]byte("topic"))
	event := &tx.Event{Address: addr, Topics: []thor.Bytes32{topic}}

	other := thor.BytesToAddress([]byte("other"))
	tests := []struct {
		name   string
		filter EventFilter
		want   bool
	}{
		{"empty", EventFilter{}, true},
		{"address", EventFilter{Address: &addr}, true},
		{"other address", EventFilter{Address: &other}, false},
		{"topic0", EventFilter{Topic0: &topic}, true},
		{"missing topic1", EventFilter{Topic1: &topic}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(event))
		})
	}
}

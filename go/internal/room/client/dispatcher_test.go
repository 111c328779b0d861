package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nheidner/typingsync/go/internal/room/protocol"
)

func TestDispatchRoutesInArrivalOrder(t *testing.T) {
	d := newDispatcher()

	var got []protocol.MessageType
	record := func(msg protocol.Message) {
		got = append(got, msg.Type)
	}
	d.handle(protocol.TypeCountdown, record)
	d.handle(protocol.TypeGameStarted, record)

	d.dispatch([]byte(`{"type":"countdown","payload":5}`))
	d.dispatch([]byte(`{"type":"game_started"}`))
	d.dispatch([]byte(`{"type":"countdown","payload":4}`))

	assert.Equal(t, []protocol.MessageType{
		protocol.TypeCountdown,
		protocol.TypeGameStarted,
		protocol.TypeCountdown,
	}, got)
}

func TestDispatchToleratesUnknownAndMalformed(t *testing.T) {
	d := newDispatcher()

	var calls int
	d.handle(protocol.TypePong, func(protocol.Message) { calls++ })

	d.dispatch([]byte(`{"type":"server_gossip","payload":{}}`))
	d.dispatch([]byte(`not json at all`))
	d.dispatch([]byte(`{"type":"pong"}`))

	assert.Equal(t, 1, calls)
}

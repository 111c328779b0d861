package client

import (
	"github.com/rs/zerolog/log"

	"github.com/nheidner/typingsync/go/internal/room/protocol"
)

type handlerFunc func(protocol.Message)

// dispatcher routes decoded inbound messages to typed handlers. Dispatch is
// synchronous and runs on the supervisor's event loop, so messages are
// applied strictly in arrival order and each at most once.
type dispatcher struct {
	handlers map[protocol.MessageType]handlerFunc
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[protocol.MessageType]handlerFunc)}
}

func (d *dispatcher) handle(messageType protocol.MessageType, fn handlerFunc) {
	d.handlers[messageType] = fn
}

// dispatch decodes one frame and invokes its handler. Malformed frames are
// dropped, unknown types ignored for forward compatibility; neither is an
// error.
func (d *dispatcher) dispatch(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Msg("dropping malformed frame")
		return
	}

	fn, ok := d.handlers[msg.Type]
	if !ok {
		log.Debug().Str("type", string(msg.Type)).Msg("ignoring unrecognized message type")
		return
	}

	fn(msg)
}

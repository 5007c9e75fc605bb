package router

import (
	"github.com/manuschillerdev/doklab-site/pkg/core"
	"github.com/manuschillerdev/doklab-site/pkg/protocol"
	"github.com/manuschillerdev/doklab-site/pkg/transport"
)

// socketTransport lets a core.Socket push through a connection. Close and
// IsConnected come from the embedded transport.
type socketTransport struct {
	transport.Transport
}

func (t socketTransport) Send(msg core.Message) error {
	return t.Transport.Send(protocol.NewMessage(msg.Topic, msg.Event, msg.Payload).WithRef(msg.Ref))
}

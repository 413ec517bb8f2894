package mediasoup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pion/rtcp"
)

// DirectTransport lets the application itself send and receive RTP, RTCP and
// data messages through its producers and consumers.
type DirectTransport struct {
	transportBase

	rtcpBag Bag[func([]byte)]
}

func newDirectTransport(params transportParams) *DirectTransport {
	t := &DirectTransport{}
	t.init(params, "DirectTransport")

	t.subs = notifications{
		t.channel.Subscribe(t.id, t.handleNotification),
		t.payloadChannel.Subscribe(t.id, t.handleNotification),
	}

	return t
}

// MaxMessageSize is the largest message a direct DataProducer may send.
func (t *DirectTransport) MaxMessageSize() uint32 {
	return t.maxMessageSize
}

// Connect is a no-op: a DirectTransport has no remote endpoint.
func (t *DirectTransport) Connect(ctx context.Context, options TransportConnectOptions) error {
	t.logger.V(1).Info("connect()")
	return nil
}

func (t *DirectTransport) SetMaxIncomingBitrate(ctx context.Context, bitrate uint32) error {
	return NewUnsupportedError("%w: setMaxIncomingBitrate() not implemented in DirectTransport", ErrNotSupported)
}

func (t *DirectTransport) SetMaxOutgoingBitrate(ctx context.Context, bitrate uint32) error {
	return NewUnsupportedError("%w: setMaxOutgoingBitrate() not implemented in DirectTransport", ErrNotSupported)
}

func (t *DirectTransport) SetMinOutgoingBitrate(ctx context.Context, bitrate uint32) error {
	return NewUnsupportedError("%w: setMinOutgoingBitrate() not implemented in DirectTransport", ErrNotSupported)
}

// SendRtcp sends a serialized RTCP packet (or compound packet) to the router.
func (t *DirectTransport) SendRtcp(rtcpPacket []byte) error {
	if t.Closed() {
		return ErrTransportClosed
	}
	return t.payloadChannel.Notify("transport.sendRtcp", t.internal, nil, rtcpPacket)
}

// SendRtcpPackets marshals packets into one compound packet and sends it.
func (t *DirectTransport) SendRtcpPackets(packets ...rtcp.Packet) error {
	data, err := rtcp.Marshal(packets)
	if err != nil {
		return NewTypeError("invalid rtcp packets: %w", err)
	}
	return t.SendRtcp(data)
}

func (t *DirectTransport) handleNotification(event string, data json.RawMessage, payload []byte) {
	switch event {
	case "rtcp":
		if t.Closed() {
			return
		}
		emit(&t.rtcpBag, payload)

	default:
		t.transportBase.handleNotification(event, data)
	}
}

// OnRtcp registers a handler for RTCP packets the router sends to the
// application.
func (t *DirectTransport) OnRtcp(handler func(data []byte)) *Subscription {
	return t.rtcpBag.Add(handler)
}

// OnRtcpPackets is OnRtcp with the packets already parsed. Unparsable
// packets are logged and dropped.
func (t *DirectTransport) OnRtcpPackets(handler func([]rtcp.Packet)) *Subscription {
	return t.rtcpBag.Add(func(data []byte) {
		packets, err := rtcp.Unmarshal(data)
		if err != nil {
			t.logger.Error(fmt.Errorf("rtcp: %w", err), "dropping rtcp packet")
			return
		}
		handler(packets)
	})
}

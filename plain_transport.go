package mediasoup

import (
	"context"
	"encoding/json"
)

type plainTransportData struct {
	RtcpMux        bool            `json:"rtcpMux"`
	Comedia        bool            `json:"comedia"`
	Tuple          TransportTuple  `json:"tuple"`
	RtcpTuple      *TransportTuple `json:"rtcpTuple,omitempty"`
	SctpParameters *SctpParameters `json:"sctpParameters,omitempty"`
	SctpState      SctpState       `json:"sctpState,omitempty"`
	SrtpParameters *SrtpParameters `json:"srtpParameters,omitempty"`
}

// PlainTransport represents a network path through which plain RTP and RTCP
// is transmitted.
type PlainTransport struct {
	transportBase

	data plainTransportData

	tupleBag     Bag[func(TransportTuple)]
	rtcpTupleBag Bag[func(TransportTuple)]
}

func newPlainTransport(params transportParams, data plainTransportData) *PlainTransport {
	t := &PlainTransport{data: data}
	t.init(params, "PlainTransport")
	t.sctpState = data.SctpState

	t.subs = notifications{t.channel.Subscribe(t.id, t.handleNotification)}

	t.OnClose(func() {
		t.mu.Lock()
		if t.sctpState != "" {
			t.sctpState = SctpStateClosed
		}
		t.mu.Unlock()
	})

	return t
}

func (t *PlainTransport) RtcpMux() bool {
	return t.data.RtcpMux
}

func (t *PlainTransport) Comedia() bool {
	return t.data.Comedia
}

// Tuple returns the transport tuple. With comedia the remote side is known
// after the first RTP packet.
func (t *PlainTransport) Tuple() TransportTuple {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.Tuple
}

// RtcpTuple returns the RTCP tuple, nil with RTCP-mux.
func (t *PlainTransport) RtcpTuple() *TransportTuple {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.RtcpTuple
}

// SrtpParameters returns the local SRTP parameters, nil without SRTP.
func (t *PlainTransport) SrtpParameters() *SrtpParameters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.SrtpParameters
}

// Connect provides the remote address and, with SRTP enabled, the remote
// SRTP parameters. With comedia only the SRTP parameters are given.
func (t *PlainTransport) Connect(ctx context.Context, options TransportConnectOptions) error {
	t.logger.V(1).Info("connect()")

	resp, err := request[plainTransportData](ctx, t.channel, "transport.connect", t.internal, H{
		"ip":             options.Ip,
		"port":           options.Port,
		"rtcpPort":       options.RtcpPort,
		"srtpParameters": options.SrtpParameters,
	})
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if resp.Tuple.LocalAddress != "" {
		t.data.Tuple = resp.Tuple
	}
	if resp.RtcpTuple != nil {
		t.data.RtcpTuple = resp.RtcpTuple
	}
	t.data.SrtpParameters = resp.SrtpParameters

	return nil
}

func (t *PlainTransport) handleNotification(event string, data json.RawMessage, _ []byte) {
	switch event {
	case "tuple":
		var n struct {
			Tuple TransportTuple `json:"tuple"`
		}
		if !decode(t.logger, event, data, &n) {
			return
		}
		t.mu.Lock()
		t.data.Tuple = n.Tuple
		t.mu.Unlock()

		emit(&t.tupleBag, n.Tuple)

	case "rtcptuple":
		var n struct {
			RtcpTuple TransportTuple `json:"rtcpTuple"`
		}
		if !decode(t.logger, event, data, &n) {
			return
		}
		t.mu.Lock()
		t.data.RtcpTuple = &n.RtcpTuple
		t.mu.Unlock()

		emit(&t.rtcpTupleBag, n.RtcpTuple)

	default:
		t.transportBase.handleNotification(event, data)
	}
}

// OnTuple registers a handler for the remote tuple detected with comedia.
func (t *PlainTransport) OnTuple(handler func(TransportTuple)) *Subscription {
	return t.tupleBag.Add(handler)
}

// OnRtcpTuple registers a handler for the remote RTCP tuple detected with
// comedia and without RTCP-mux.
func (t *PlainTransport) OnRtcpTuple(handler func(TransportTuple)) *Subscription {
	return t.rtcpTupleBag.Add(handler)
}

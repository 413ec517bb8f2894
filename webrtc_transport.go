package mediasoup

import (
	"context"
	"encoding/json"
)

type webRtcTransportData struct {
	// always "controlled"
	IceRole          string          `json:"iceRole,omitempty"`
	IceParameters    IceParameters   `json:"iceParameters"`
	IceCandidates    []IceCandidate  `json:"iceCandidates"`
	IceState         IceState        `json:"iceState"`
	IceSelectedTuple *TransportTuple `json:"iceSelectedTuple,omitempty"`
	DtlsParameters   DtlsParameters  `json:"dtlsParameters"`
	DtlsState        DtlsState       `json:"dtlsState"`
	DtlsRemoteCert   string          `json:"dtlsRemoteCert,omitempty"`
	SctpParameters   *SctpParameters `json:"sctpParameters,omitempty"`
	SctpState        SctpState       `json:"sctpState,omitempty"`
}

// WebRtcTransport represents a network path negotiated by both a WebRTC
// endpoint and mediasoup via ICE and DTLS procedures.
type WebRtcTransport struct {
	transportBase

	data webRtcTransportData

	webRtcServerCloseBag      Bag[func()]
	iceStateChangeBag         Bag[func(IceState)]
	iceSelectedTupleChangeBag Bag[func(TransportTuple)]
	dtlsStateChangeBag        Bag[func(DtlsState)]
}

func newWebRtcTransport(params transportParams, data webRtcTransportData) *WebRtcTransport {
	t := &WebRtcTransport{data: data}
	t.init(params, "WebRtcTransport")
	t.sctpState = data.SctpState

	t.subs = notifications{t.channel.Subscribe(t.id, t.handleNotification)}

	t.OnClose(t.markStatesClosed)

	return t
}

func (t *WebRtcTransport) markStatesClosed() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.IceState = IceStateClosed
	t.data.IceSelectedTuple = nil
	t.data.DtlsState = DtlsStateClosed

	if t.sctpState != "" {
		t.sctpState = SctpStateClosed
	}
}

// IceRole is always "controlled".
func (t *WebRtcTransport) IceRole() string {
	return t.data.IceRole
}

func (t *WebRtcTransport) IceParameters() IceParameters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.IceParameters
}

func (t *WebRtcTransport) IceCandidates() []IceCandidate {
	return t.data.IceCandidates
}

func (t *WebRtcTransport) IceState() IceState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.IceState
}

// IceSelectedTuple returns the selected ICE tuple, nil until ICE connects.
func (t *WebRtcTransport) IceSelectedTuple() *TransportTuple {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.IceSelectedTuple
}

func (t *WebRtcTransport) DtlsParameters() DtlsParameters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.DtlsParameters
}

func (t *WebRtcTransport) DtlsState() DtlsState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.DtlsState
}

// DtlsRemoteCert returns the remote certificate in PEM format, set once the
// DTLS state is connected.
func (t *WebRtcTransport) DtlsRemoteCert() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.DtlsRemoteCert
}

func (t *WebRtcTransport) webRtcServerClosed() {
	t.ancestorClosed("webRtcServerClosed()", &t.webRtcServerCloseBag)
}

// Connect provides the remote DTLS parameters.
func (t *WebRtcTransport) Connect(ctx context.Context, options TransportConnectOptions) error {
	t.logger.V(1).Info("connect()")

	if options.DtlsParameters == nil {
		return NewTypeError("missing dtlsParameters")
	}

	resp, err := request[struct {
		DtlsLocalRole DtlsRole `json:"dtlsLocalRole"`
	}](ctx, t.channel, "transport.connect", t.internal, H{"dtlsParameters": options.DtlsParameters})
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.data.DtlsParameters.Role = resp.DtlsLocalRole
	t.mu.Unlock()

	return nil
}

// RestartIce generates new ICE username fragment and password.
func (t *WebRtcTransport) RestartIce(ctx context.Context) (IceParameters, error) {
	t.logger.V(1).Info("restartIce()")

	resp, err := request[IceParameters](ctx, t.channel, "transport.restartIce", t.internal, nil)
	if err != nil {
		return IceParameters{}, err
	}

	t.mu.Lock()
	t.data.IceParameters = *resp
	t.mu.Unlock()

	return *resp, nil
}

func (t *WebRtcTransport) handleNotification(event string, data json.RawMessage, _ []byte) {
	switch event {
	case "icestatechange":
		var n struct {
			IceState IceState `json:"iceState"`
		}
		if !decode(t.logger, event, data, &n) {
			return
		}
		t.mu.Lock()
		t.data.IceState = n.IceState
		t.mu.Unlock()

		emit(&t.iceStateChangeBag, n.IceState)

	case "iceselectedtuplechange":
		var n struct {
			IceSelectedTuple TransportTuple `json:"iceSelectedTuple"`
		}
		if !decode(t.logger, event, data, &n) {
			return
		}
		t.mu.Lock()
		t.data.IceSelectedTuple = &n.IceSelectedTuple
		t.mu.Unlock()

		emit(&t.iceSelectedTupleChangeBag, n.IceSelectedTuple)

	case "dtlsstatechange":
		var n struct {
			DtlsState      DtlsState `json:"dtlsState"`
			DtlsRemoteCert string    `json:"dtlsRemoteCert"`
		}
		if !decode(t.logger, event, data, &n) {
			return
		}
		t.mu.Lock()
		t.data.DtlsState = n.DtlsState
		if n.DtlsState == DtlsStateConnected {
			t.data.DtlsRemoteCert = n.DtlsRemoteCert
		}
		t.mu.Unlock()

		emit(&t.dtlsStateChangeBag, n.DtlsState)

	default:
		t.transportBase.handleNotification(event, data)
	}
}

// OnWebRtcServerClose registers a handler for the closure of the
// WebRtcServer the transport was created on.
func (t *WebRtcTransport) OnWebRtcServerClose(handler func()) *Subscription {
	return addOrCall(&t.webRtcServerCloseBag, handler)
}

func (t *WebRtcTransport) OnIceStateChange(handler func(IceState)) *Subscription {
	return t.iceStateChangeBag.Add(handler)
}

func (t *WebRtcTransport) OnIceSelectedTupleChange(handler func(TransportTuple)) *Subscription {
	return t.iceSelectedTupleChangeBag.Add(handler)
}

func (t *WebRtcTransport) OnDtlsStateChange(handler func(DtlsState)) *Subscription {
	return t.dtlsStateChangeBag.Add(handler)
}

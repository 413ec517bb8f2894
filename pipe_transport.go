package mediasoup

import (
	"context"
	"encoding/json"
)

type pipeTransportData struct {
	Tuple          TransportTuple  `json:"tuple"`
	SctpParameters *SctpParameters `json:"sctpParameters,omitempty"`
	SctpState      SctpState       `json:"sctpState,omitempty"`
	Rtx            bool            `json:"rtx"`
	SrtpParameters *SrtpParameters `json:"srtpParameters,omitempty"`
}

// PipeTransport connects two routers, in the same or in different hosts.
type PipeTransport struct {
	transportBase

	data pipeTransportData
}

func newPipeTransport(params transportParams, data pipeTransportData) *PipeTransport {
	t := &PipeTransport{data: data}
	t.init(params, "PipeTransport")
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

func (t *PipeTransport) Tuple() TransportTuple {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.Tuple
}

// Rtx reports whether RTX and NACK are enabled.
func (t *PipeTransport) Rtx() bool {
	return t.data.Rtx
}

// SrtpParameters returns the local SRTP parameters, nil without SRTP.
func (t *PipeTransport) SrtpParameters() *SrtpParameters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.SrtpParameters
}

// Connect provides the address of the remote PipeTransport.
func (t *PipeTransport) Connect(ctx context.Context, options TransportConnectOptions) error {
	t.logger.V(1).Info("connect()")

	if options.Ip == "" {
		return NewTypeError("missing ip")
	}
	if options.Port == nil {
		return NewTypeError("missing port")
	}

	resp, err := request[pipeTransportData](ctx, t.channel, "transport.connect", t.internal, H{
		"ip":             options.Ip,
		"port":           options.Port,
		"srtpParameters": options.SrtpParameters,
	})
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.data.Tuple = resp.Tuple
	t.mu.Unlock()

	return nil
}

// Consume creates a pipe Consumer carrying every encoding of the producer.
// RtpCapabilities are not needed on a PipeTransport.
func (t *PipeTransport) Consume(ctx context.Context, options ConsumerOptions) (*Consumer, error) {
	return t.consume(ctx, options, &pipeConsumerOptions{enableRtx: t.data.Rtx})
}

func (t *PipeTransport) handleNotification(event string, data json.RawMessage, _ []byte) {
	t.transportBase.handleNotification(event, data)
}

package mediasoup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sfukit/mediasoup-go/internal/channel"
	"github.com/sfukit/mediasoup-go/internal/netcodec"
)

const fakeWorkerPid = 4242

// fakeRequest is a request or notification received by the fake worker.
type fakeRequest struct {
	Id       uint32           `json:"id"`
	Method   string           `json:"method"`
	Event    string           `json:"event"`
	Internal channel.Internal `json:"internal"`
	Data     json.RawMessage  `json:"data"`
	Payload  []byte           `json:"-"`
	Raw      string           `json:"-"`
}

// decode unmarshals the request data.
func (r fakeRequest) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

func (r fakeRequest) data(t *testing.T) H {
	t.Helper()
	var h H
	if len(r.Data) > 0 {
		r.decode(t, &h)
	}
	return h
}

type fakeHandler func(req fakeRequest) (any, error)

// fakeSide is one pipe pair seen from the worker.
type fakeSide struct {
	mu    sync.Mutex
	codec netcodec.Codec
}

func (s *fakeSide) write(frames ...[]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, frame := range frames {
		if err := s.codec.WritePayload(frame); err != nil {
			return err
		}
	}
	return nil
}

// fakeWorker is an in-process worker speaking the netstring JSON protocol.
// It answers every request with canned data, which tests may override per
// method, and records what it received.
type fakeWorker struct {
	t *testing.T

	control *fakeSide
	payload *fakeSide
	closers []io.Closer

	// silent workers never report they are running.
	silent bool

	mu             sync.Mutex
	received       []fakeRequest
	handlers       map[string]fakeHandler
	pausedProducer map[string]bool

	exitOnce sync.Once
	exited   chan struct{}
	exitErr  error
}

func newFakeWorker(t *testing.T) *fakeWorker {
	return &fakeWorker{
		t:              t,
		handlers:       make(map[string]fakeHandler),
		pausedProducer: make(map[string]bool),
		exited:         make(chan struct{}),
	}
}

func (w *fakeWorker) Launch(ctx context.Context, settings *WorkerSettings) (Process, Pipes, error) {
	controlToWorkerR, controlToWorkerW := io.Pipe()
	controlFromWorkerR, controlFromWorkerW := io.Pipe()
	payloadToWorkerR, payloadToWorkerW := io.Pipe()
	payloadFromWorkerR, payloadFromWorkerW := io.Pipe()

	w.control = &fakeSide{codec: netcodec.NewNetStringCodec(controlFromWorkerW, controlToWorkerR)}
	w.payload = &fakeSide{codec: netcodec.NewNetStringCodec(payloadFromWorkerW, payloadToWorkerR)}
	w.closers = []io.Closer{controlFromWorkerW, controlToWorkerR, payloadFromWorkerW, payloadToWorkerR}

	go func() {
		if !w.silent {
			w.notify(fakeWorkerPid, "running", nil)
		}
		w.serve(w.control, false)
	}()
	go w.serve(w.payload, true)

	return w, Pipes{
		ControlWriter: controlToWorkerW,
		ControlReader: controlFromWorkerR,
		PayloadWriter: payloadToWorkerW,
		PayloadReader: payloadFromWorkerR,
	}, nil
}

func (w *fakeWorker) Pid() int { return fakeWorkerPid }

func (w *fakeWorker) Wait() error {
	<-w.exited
	return w.exitErr
}

func (w *fakeWorker) Signal(os.Signal) error {
	w.exit(nil)
	return nil
}

func (w *fakeWorker) Kill() error {
	w.exit(nil)
	return nil
}

// crash makes the process exit on its own.
func (w *fakeWorker) crash(err error) {
	w.exit(err)
}

func (w *fakeWorker) exit(err error) {
	w.exitOnce.Do(func() {
		w.exitErr = err
		for _, c := range w.closers {
			c.Close()
		}
		close(w.exited)
	})
}

func (w *fakeWorker) serve(side *fakeSide, payloadFrames bool) {
	for {
		raw, err := side.codec.ReadPayload()
		if err != nil {
			return
		}
		var req fakeRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			continue
		}
		req.Raw = string(raw)

		if payloadFrames {
			if req.Payload, err = side.codec.ReadPayload(); err != nil {
				return
			}
		}

		w.mu.Lock()
		w.received = append(w.received, req)
		handler := w.handlers[req.Method]
		w.mu.Unlock()

		// Notifications expect no answer.
		if req.Method == "" {
			continue
		}
		if handler == nil {
			handler = w.defaultHandler
		}
		data, herr := handler(req)

		var resp H
		if herr != nil {
			resp = H{"id": req.Id, "error": "Error", "reason": herr.Error()}
			var typeErr *TypeError
			if errors.As(herr, &typeErr) {
				resp["error"] = "TypeError"
			}
		} else {
			resp = H{"id": req.Id, "accepted": true}
			if data != nil {
				resp["data"] = data
			}
		}
		body, _ := json.Marshal(resp)
		if side.write(body) != nil {
			return
		}
	}
}

// handle overrides the answer to method.
func (w *fakeWorker) handle(method string, handler fakeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.handlers[method] = handler
}

// notify emits a control channel notification.
func (w *fakeWorker) notify(targetId any, event string, data any) {
	body, err := json.Marshal(H{"targetId": targetId, "event": event, "data": data})
	require.NoError(w.t, err)
	w.control.write(body)
}

// notifyPayload emits a payload channel notification followed by its payload.
func (w *fakeWorker) notifyPayload(targetId string, event string, data any, payload []byte) {
	body, err := json.Marshal(H{"targetId": targetId, "event": event, "data": data})
	require.NoError(w.t, err)
	w.payload.write(body, payload)
}

// requests returns the requests received for method, in order.
func (w *fakeWorker) requests(method string) []fakeRequest {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []fakeRequest
	for _, req := range w.received {
		if req.Method == method || (req.Method == "" && req.Event == method) {
			out = append(out, req)
		}
	}
	return out
}

// lastRequest returns the last request received for method.
func (w *fakeWorker) lastRequest(method string) fakeRequest {
	w.t.Helper()
	reqs := w.requests(method)
	require.NotEmpty(w.t, reqs, "no %s request received", method)
	return reqs[len(reqs)-1]
}

// waitRequests waits for n requests of method, for the fire-and-forget ones.
func (w *fakeWorker) waitRequests(method string, n int) []fakeRequest {
	w.t.Helper()
	require.Eventually(w.t, func() bool {
		return len(w.requests(method)) >= n
	}, time.Second, 5*time.Millisecond, "waiting for %d %s requests", n, method)
	return w.requests(method)
}

func (w *fakeWorker) defaultHandler(req fakeRequest) (any, error) {
	data := req.data(w.t)

	switch req.Method {
	case "worker.dump":
		return H{"pid": fakeWorkerPid, "routerIds": []string{}, "webRtcServerIds": []string{}}, nil

	case "worker.getResourceUsage":
		return H{"ru_utime": 10, "ru_stime": 5, "ru_maxrss": 1024}, nil

	case "router.createWebRtcTransport":
		resp := H{
			"iceRole": "controlled",
			"iceParameters": H{
				"usernameFragment": "ufrag",
				"password":         "pwd",
				"iceLite":          true,
			},
			"iceCandidates": []H{
				{"foundation": "udpcandidate", "priority": 1076302079, "address": "127.0.0.1", "protocol": "udp", "port": 40000, "type": "host"},
			},
			"iceState": "new",
			"dtlsParameters": H{
				"role":         "auto",
				"fingerprints": []H{{"algorithm": "sha-256", "value": "AA:BB"}},
			},
			"dtlsState": "new",
		}
		addSctp(resp, data)
		return resp, nil

	case "router.createPlainTransport":
		listenInfo, _ := data["listenInfo"].(map[string]any)
		resp := H{
			"rtcpMux": data["rtcpMux"],
			"comedia": data["comedia"],
			"tuple": H{
				"localAddress": listenInfo["ip"],
				"localPort":    40002,
				"protocol":     "udp",
			},
		}
		if data["rtcpMux"] == false {
			resp["rtcpTuple"] = H{"localAddress": listenInfo["ip"], "localPort": 40003, "protocol": "udp"}
		}
		if data["enableSrtp"] == true {
			resp["srtpParameters"] = H{"cryptoSuite": data["srtpCryptoSuite"], "keyBase64": "ZnVjay10aGUtc3B5"}
		}
		addSctp(resp, data)
		return resp, nil

	case "router.createPipeTransport":
		listenInfo, _ := data["listenInfo"].(map[string]any)
		resp := H{
			"tuple": H{
				"localAddress": listenInfo["ip"],
				"localPort":    40004,
				"protocol":     "udp",
			},
			"rtx": data["enableRtx"],
		}
		if data["enableSrtp"] == true {
			resp["srtpParameters"] = H{"cryptoSuite": "AEAD_AES_256_GCM", "keyBase64": "c2VjcmV0LXBpcGUta2V5"}
		}
		addSctp(resp, data)
		return resp, nil

	case "transport.connect":
		if _, ok := data["dtlsParameters"]; ok {
			return H{"dtlsLocalRole": "client"}, nil
		}
		return H{"tuple": H{
			"localAddress": "127.0.0.1",
			"localPort":    40004,
			"remoteIp":     data["ip"],
			"remotePort":   data["port"],
			"protocol":     "udp",
		}}, nil

	case "transport.restartIce":
		return H{"usernameFragment": "ufrag2", "password": "pwd2", "iceLite": true}, nil

	case "transport.produce":
		w.mu.Lock()
		w.pausedProducer[data["producerId"].(string)] = data["paused"] == true
		w.mu.Unlock()
		return H{}, nil

	case "producer.pause", "producer.resume":
		w.mu.Lock()
		w.pausedProducer[req.Internal.ProducerId] = req.Method == "producer.pause"
		w.mu.Unlock()
		return nil, nil

	case "transport.consume":
		w.mu.Lock()
		producerPaused := w.pausedProducer[data["producerId"].(string)]
		w.mu.Unlock()
		return H{
			"paused":         data["paused"],
			"producerPaused": producerPaused,
			"score":          H{"score": 10, "producerScore": 0, "producerScores": []int{}},
		}, nil

	case "transport.consumeData":
		return H{"paused": data["paused"], "dataProducerPaused": false}, nil

	case "consumer.setPreferredLayers":
		return data, nil

	case "consumer.setPriority":
		return data, nil

	case "dataConsumer.getBufferedAmount":
		return H{"bufferedAmount": 0}, nil

	case "router.dump":
		return H{"id": req.Internal.RouterId}, nil

	case "webRtcServer.dump":
		return H{"id": req.Internal.WebRtcServerId}, nil

	case "transport.dump":
		return H{"id": req.Internal.TransportId}, nil

	case "producer.dump":
		return H{"id": req.Internal.ProducerId}, nil

	case "consumer.dump":
		return H{"id": req.Internal.ConsumerId, "producerId": req.Internal.ProducerId}, nil

	case "dataProducer.dump":
		return H{"id": req.Internal.DataProducerId}, nil

	case "dataConsumer.dump":
		return H{"id": req.Internal.DataConsumerId, "dataProducerId": req.Internal.DataProducerId}, nil
	}

	if strings.HasSuffix(req.Method, ".getStats") {
		return []H{}, nil
	}
	return nil, nil
}

func addSctp(resp H, data H) {
	if data["enableSctp"] != true {
		return
	}
	streams, _ := data["numSctpStreams"].(map[string]any)
	resp["sctpParameters"] = H{
		"port":           5000,
		"OS":             streams["OS"],
		"MIS":            streams["MIS"],
		"maxMessageSize": data["maxSctpMessageSize"],
	}
	resp["sctpState"] = "new"
}

// newTestWorker starts a Worker on top of a fake worker process.
func newTestWorker(t *testing.T, options ...Option) (*Worker, *fakeWorker) {
	t.Helper()

	fw := newFakeWorker(t)
	options = append([]Option{WithLauncher(fw), WithStartTimeout(time.Second)}, options...)

	worker, err := NewWorker(options...)
	require.NoError(t, err)
	t.Cleanup(worker.Close)

	return worker, fw
}

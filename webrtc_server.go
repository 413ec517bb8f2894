package mediasoup

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

// WebRtcServer owns listening sockets shared by many WebRtcTransports.
type WebRtcServer struct {
	lifecycle

	id       string
	worker   *Worker
	channel  *channel.Channel
	internal channel.Internal
	logger   logr.Logger
	appData  H

	mu               sync.Mutex
	webRtcTransports map[string]*WebRtcTransport

	workerCloseBag        Bag[func()]
	newWebRtcTransportBag Bag[func(*WebRtcTransport)]
}

func newWebRtcServer(id string, worker *Worker, appData H) *WebRtcServer {
	logger := NewLogger("WebRtcServer").WithValues("id", id)
	logger.V(1).Info("constructor()")

	return &WebRtcServer{
		id:               id,
		worker:           worker,
		channel:          worker.channel,
		internal:         channel.Internal{WebRtcServerId: id},
		logger:           logger,
		appData:          orEmpty(appData),
		webRtcTransports: make(map[string]*WebRtcTransport),
	}
}

func (s *WebRtcServer) Id() string {
	return s.id
}

func (s *WebRtcServer) AppData() H {
	return s.appData
}

// WebRtcTransports returns the transports currently using the server.
func (s *WebRtcServer) WebRtcTransports() []*WebRtcTransport {
	s.mu.Lock()
	defer s.mu.Unlock()

	transports := make([]*WebRtcTransport, 0, len(s.webRtcTransports))
	for _, t := range s.webRtcTransports {
		transports = append(transports, t)
	}
	return transports
}

// Close closes the server and every WebRtcTransport using it.
func (s *WebRtcServer) Close() {
	if !s.markClosed() {
		return
	}
	s.logger.V(1).Info("close()")

	s.fireClose()
	sendCloseRequest(s.worker.channel, s.logger, "worker.closeWebRtcServer", channel.Internal{}, H{"webRtcServerId": s.id})
	s.closeChildren()
}

func (s *WebRtcServer) workerClosed() {
	if !s.markClosed() {
		return
	}
	s.logger.V(1).Info("workerClosed()")

	fireOnce(&s.workerCloseBag)
	s.fireClose()
	s.closeChildren()
}

func (s *WebRtcServer) Dump(ctx context.Context) (*WebRtcServerDump, error) {
	s.logger.V(1).Info("dump()")

	resp, err := s.channel.Request(ctx, "webRtcServer.dump", s.internal, nil)
	if err != nil {
		return nil, err
	}
	var dump WebRtcServerDump
	if err := resp.Unmarshal(&dump); err != nil {
		return nil, err
	}
	return &dump, nil
}

// handleWebRtcTransport registers a transport created on this server.
func (s *WebRtcServer) handleWebRtcTransport(t *WebRtcTransport) {
	s.mu.Lock()
	s.webRtcTransports[t.Id()] = t
	s.mu.Unlock()

	t.OnClose(func() {
		s.mu.Lock()
		delete(s.webRtcTransports, t.Id())
		s.mu.Unlock()
	})
	t.link(s.adopt(t.webRtcServerClosed))

	emit(&s.newWebRtcTransportBag, t)
}

func (s *WebRtcServer) OnWorkerClose(handler func()) *Subscription {
	return addOrCall(&s.workerCloseBag, handler)
}

func (s *WebRtcServer) OnNewWebRtcTransport(handler func(*WebRtcTransport)) *Subscription {
	return s.newWebRtcTransportBag.Add(handler)
}

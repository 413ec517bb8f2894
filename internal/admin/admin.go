// Package admin serves a read-mostly HTTP API over the workers of a process.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/go-logr/logr"

	mediasoup "github.com/sfukit/mediasoup-go"
)

// Worker is the part of *mediasoup.Worker the API needs.
type Worker interface {
	Pid() int
	Closed() bool
	Died() bool
	AppData() mediasoup.H
	Routers() []*mediasoup.Router
	Dump(ctx context.Context) (*mediasoup.WorkerDump, error)
	GetResourceUsage(ctx context.Context) (*mediasoup.WorkerResourceUsage, error)
	UpdateSettings(ctx context.Context, settings mediasoup.WorkerUpdatableSettings) error
}

// Source lists the workers to expose.
type Source func() []Worker

// ManagerSource exposes the live workers of manager.
func ManagerSource(manager *mediasoup.WorkerManager) Source {
	return func() []Worker {
		workers := manager.Workers()
		list := make([]Worker, 0, len(workers))
		for _, w := range workers {
			list = append(list, w)
		}
		return list
	}
}

type WorkerInfo struct {
	Pid       int         `json:"pid"`
	Closed    bool        `json:"closed"`
	Died      bool        `json:"died"`
	RouterIds []string    `json:"routerIds"`
	AppData   mediasoup.H `json:"appData,omitempty"`
}

type RouterInfo struct {
	Id              string                    `json:"id"`
	RtpCapabilities mediasoup.RtpCapabilities `json:"rtpCapabilities"`
}

type pidInput struct {
	Pid int `path:"pid" doc:"Worker process id"`
}

type listWorkersOutput struct {
	Body []WorkerInfo
}

type dumpOutput struct {
	Body *mediasoup.WorkerDump
}

type resourceUsageOutput struct {
	Body *mediasoup.WorkerResourceUsage
}

type updateSettingsInput struct {
	Pid  int `path:"pid" doc:"Worker process id"`
	Body mediasoup.WorkerUpdatableSettings
}

type routersOutput struct {
	Body []RouterInfo
}

type capabilitiesOutput struct {
	Body mediasoup.RtpCapabilities
}

// Register adds the admin operations to api.
func Register(api huma.API, source Source) {
	find := func(pid int) (Worker, error) {
		for _, w := range source() {
			if w.Pid() == pid {
				return w, nil
			}
		}
		return nil, huma.Error404NotFound("no such worker")
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-workers",
		Method:      http.MethodGet,
		Path:        "/api/workers",
		Summary:     "List workers",
		Tags:        []string{"workers"},
	}, func(ctx context.Context, _ *struct{}) (*listWorkersOutput, error) {
		workers := source()
		out := &listWorkersOutput{Body: make([]WorkerInfo, 0, len(workers))}
		for _, w := range workers {
			info := WorkerInfo{
				Pid:       w.Pid(),
				Closed:    w.Closed(),
				Died:      w.Died(),
				RouterIds: []string{},
				AppData:   w.AppData(),
			}
			for _, r := range w.Routers() {
				info.RouterIds = append(info.RouterIds, r.Id())
			}
			out.Body = append(out.Body, info)
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dump-worker",
		Method:      http.MethodGet,
		Path:        "/api/workers/{pid}/dump",
		Summary:     "Dump a worker",
		Description: "Resources allocated by the worker process, as the worker reports them.",
		Tags:        []string{"workers"},
		Errors:      []int{404, 502},
	}, func(ctx context.Context, input *pidInput) (*dumpOutput, error) {
		w, err := find(input.Pid)
		if err != nil {
			return nil, err
		}
		dump, err := w.Dump(ctx)
		if err != nil {
			return nil, workerError(err)
		}
		return &dumpOutput{Body: dump}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "worker-resource-usage",
		Method:      http.MethodGet,
		Path:        "/api/workers/{pid}/resource-usage",
		Summary:     "Worker resource usage",
		Tags:        []string{"workers"},
		Errors:      []int{404, 502},
	}, func(ctx context.Context, input *pidInput) (*resourceUsageOutput, error) {
		w, err := find(input.Pid)
		if err != nil {
			return nil, err
		}
		usage, err := w.GetResourceUsage(ctx)
		if err != nil {
			return nil, workerError(err)
		}
		return &resourceUsageOutput{Body: usage}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "update-worker-settings",
		Method:        http.MethodPut,
		Path:          "/api/workers/{pid}/settings",
		Summary:       "Update worker log settings",
		Tags:          []string{"workers"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{404, 502},
	}, func(ctx context.Context, input *updateSettingsInput) (*struct{}, error) {
		w, err := find(input.Pid)
		if err != nil {
			return nil, err
		}
		if err := w.UpdateSettings(ctx, input.Body); err != nil {
			return nil, workerError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-routers",
		Method:      http.MethodGet,
		Path:        "/api/workers/{pid}/routers",
		Summary:     "Routers of a worker with their RTP capabilities",
		Tags:        []string{"routers"},
		Errors:      []int{404},
	}, func(ctx context.Context, input *pidInput) (*routersOutput, error) {
		w, err := find(input.Pid)
		if err != nil {
			return nil, err
		}
		routers := w.Routers()
		out := &routersOutput{Body: make([]RouterInfo, 0, len(routers))}
		for _, r := range routers {
			out.Body = append(out.Body, RouterInfo{Id: r.Id(), RtpCapabilities: r.RtpCapabilities()})
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "supported-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/capabilities",
		Summary:     "RTP capabilities supported by mediasoup",
		Tags:        []string{"routers"},
	}, func(ctx context.Context, _ *struct{}) (*capabilitiesOutput, error) {
		return &capabilitiesOutput{Body: mediasoup.GetSupportedRtpCapabilities()}, nil
	})
}

func workerError(err error) error {
	if errors.Is(err, mediasoup.ErrChannelClosed) {
		return huma.Error503ServiceUnavailable("worker is closed", err)
	}
	var respErr *mediasoup.ResponseError
	if errors.As(err, &respErr) {
		return huma.Error502BadGateway(respErr.Error(), err)
	}
	return huma.Error500InternalServerError("worker request failed", err)
}

// Server is the admin HTTP server. The metrics handler, when set, is served
// next to the API.
type Server struct {
	api        huma.API
	httpServer *http.Server
	logger     logr.Logger
}

func NewServer(addr string, source Source, metricsPath string, metrics http.Handler, logger logr.Logger) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("sfuctl admin API", "1.0.0")
	config.Servers = []*huma.Server{}
	api := humago.New(mux, config)

	s := &Server{
		api: api,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
	api.UseMiddleware(s.logRequests)

	if metrics != nil && metricsPath != "" {
		mux.Handle("GET "+metricsPath, metrics)
	}
	Register(api, source)

	return s
}

func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("admin API listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	status := ctx.Status()
	kv := []any{
		"method", ctx.Method(),
		"path", ctx.URL().Path,
		"status", status,
		"duration", time.Since(start),
	}
	if status >= 500 {
		s.logger.Info("request failed", kv...)
		return
	}
	s.logger.V(1).Info("request", kv...)
}

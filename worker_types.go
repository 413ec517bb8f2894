package mediasoup

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
)

type WorkerLogLevel string

const (
	WorkerLogLevelDebug WorkerLogLevel = "debug"
	WorkerLogLevelWarn  WorkerLogLevel = "warn"
	WorkerLogLevelError WorkerLogLevel = "error"
	WorkerLogLevelNone  WorkerLogLevel = "none"
)

type WorkerLogTag string

const (
	WorkerLogTagInfo      WorkerLogTag = "info"
	WorkerLogTagIce       WorkerLogTag = "ice"
	WorkerLogTagDtls      WorkerLogTag = "dtls"
	WorkerLogTagRtp       WorkerLogTag = "rtp"
	WorkerLogTagSrtp      WorkerLogTag = "srtp"
	WorkerLogTagRtcp      WorkerLogTag = "rtcp"
	WorkerLogTagRtx       WorkerLogTag = "rtx"
	WorkerLogTagBwe       WorkerLogTag = "bwe"
	WorkerLogTagScore     WorkerLogTag = "score"
	WorkerLogTagSimulcast WorkerLogTag = "simulcast"
	WorkerLogTagSvc       WorkerLogTag = "svc"
	WorkerLogTagSctp      WorkerLogTag = "sctp"
	WorkerLogTagMessage   WorkerLogTag = "message"
)

const defaultWorkerBin = "/usr/local/lib/node_modules/mediasoup/worker/out/Release/mediasoup-worker"

// WorkerSettings represents the configuration settings for a worker.
type WorkerSettings struct {
	// WorkerBin is the worker executable, optionally preceded by a wrapper
	// command. Defaults to $MEDIASOUP_WORKER_BIN.
	WorkerBin string

	// WorkerVersion selects the channel framing and is passed to the worker
	// as MEDIASOUP_VERSION.
	WorkerVersion string

	// LogLevel defines the log level for media worker subprocess logs.
	// Valid values: 'debug', 'warn', 'error', 'none'. Defaults to 'error'.
	LogLevel WorkerLogLevel `json:"logLevel,omitempty"`

	// LogTags defines debug log tags. See debugging documentation for tag details.
	LogTags []WorkerLogTag `json:"logTags,omitempty"`

	// RtcMinPort and RtcMaxPort bound the ports used by transports that do
	// not set their own range. Default 10000-59999.
	RtcMinPort uint16 `json:"rtcMinPort,omitempty"`
	RtcMaxPort uint16 `json:"rtcMaxPort,omitempty"`

	// DtlsCertificateFile is the path to PEM formatted DTLS public certificate.
	// If empty, a certificate is generated dynamically.
	DtlsCertificateFile string `json:"dtlsCertificateFile,omitempty"`

	// DtlsPrivateKeyFile is the path to PEM formatted DTLS private key.
	// If empty, a certificate is generated dynamically.
	DtlsPrivateKeyFile string `json:"dtlsPrivateKeyFile,omitempty"`

	// LibwebrtcFieldTrials sets libwebrtc field trials (advanced).
	// WARNING: Invalid values will crash the worker.
	LibwebrtcFieldTrials string `json:"libwebrtcFieldTrials,omitempty"`

	// DisableLiburing disables io_uring even if supported by host.
	DisableLiburing bool `json:"disableLiburing,omitempty"`

	// AppData holds custom application data.
	AppData H `json:"appData,omitempty"`

	// Launcher starts the process. Defaults to ExecLauncher.
	Launcher Launcher `json:"-"`

	// RequestTimeout applies to requests whose context has no deadline.
	RequestTimeout time.Duration `json:"-"`

	// StartTimeout bounds the wait for the worker to report it is running.
	StartTimeout time.Duration `json:"-"`

	// Logger replaces the "Worker" scope logger.
	Logger logr.Logger `json:"-"`
}

func newWorkerSettings(options []Option) *WorkerSettings {
	settings := &WorkerSettings{
		WorkerBin:    os.Getenv("MEDIASOUP_WORKER_BIN"),
		LogLevel:     WorkerLogLevelError,
		RtcMinPort:   10000,
		RtcMaxPort:   59999,
		StartTimeout: 5 * time.Second,
	}
	if settings.WorkerBin == "" {
		settings.WorkerBin = defaultWorkerBin
	}
	for _, option := range options {
		option(settings)
	}
	if settings.Launcher == nil {
		settings.Launcher = ExecLauncher{Logger: settings.Logger}
	}
	return settings
}

// Args builds the worker command line.
func (s *WorkerSettings) Args() []string {
	var args []string

	if s.LogLevel != "" {
		args = append(args, "--logLevel="+string(s.LogLevel))
	}
	for _, tag := range s.LogTags {
		args = append(args, "--logTag="+string(tag))
	}
	if s.RtcMinPort > 0 {
		args = append(args, fmt.Sprintf("--rtcMinPort=%d", s.RtcMinPort))
	}
	if s.RtcMaxPort > 0 {
		args = append(args, fmt.Sprintf("--rtcMaxPort=%d", s.RtcMaxPort))
	}
	if s.DtlsCertificateFile != "" && s.DtlsPrivateKeyFile != "" {
		args = append(args,
			"--dtlsCertificateFile="+s.DtlsCertificateFile,
			"--dtlsPrivateKeyFile="+s.DtlsPrivateKeyFile,
		)
	}
	if s.LibwebrtcFieldTrials != "" {
		args = append(args, "--libwebrtcFieldTrials="+s.LibwebrtcFieldTrials)
	}
	if s.DisableLiburing {
		args = append(args, "--disableLiburing=true")
	}
	return args
}

// WorkerUpdatableSettings are the settings a running worker accepts.
type WorkerUpdatableSettings struct {
	LogLevel WorkerLogLevel `json:"logLevel,omitempty"`
	LogTags  []WorkerLogTag `json:"logTags,omitempty"`
}

type WorkerDump struct {
	Pid                    int                               `json:"pid,omitempty"`
	WebRtcServerIds        []string                          `json:"webRtcServerIds,omitempty"`
	RouterIds              []string                          `json:"routerIds,omitempty"`
	ChannelMessageHandlers *WorkerDumpChannelMessageHandlers `json:"channelMessageHandlers,omitempty"`
	Liburing               *WorkerDumpLiburing               `json:"liburing,omitempty"`
}

type WorkerDumpChannelMessageHandlers struct {
	ChannelRequestHandlers      []string `json:"channelRequestHandlers,omitempty"`
	ChannelNotificationHandlers []string `json:"channelNotificationHandlers,omitempty"`
}

type WorkerDumpLiburing struct {
	SqeProcessCount   uint64 `json:"sqeProcessCount,omitempty"`
	SqeMissCount      uint64 `json:"sqeMissCount,omitempty"`
	UserDataMissCount uint64 `json:"userDataMissCount,omitempty"`
}

// WorkerResourceUsage represents the resource usage statistics of a worker.
// It includes various metrics related to CPU usage, memory usage, and I/O operations.
//
// http://docs.libuv.org/en/v1.x/misc.html#c.uv_rusage_t
// https://linux.die.net/man/2/getrusage
type WorkerResourceUsage struct {
	// User CPU time used (in milliseconds).
	RuUtime uint64 `json:"ru_utime"`

	// System CPU time used (in milliseconds).
	RuStime uint64 `json:"ru_stime"`

	// Maximum resident set size.
	RuMaxrss uint64 `json:"ru_maxrss"`

	// Integral shared memory size.
	RuIxrss uint64 `json:"ru_ixrss"`

	// Integral unshared data size.
	RuIdrss uint64 `json:"ru_idrss"`

	// Integral unshared stack size.
	RuIsrss uint64 `json:"ru_isrss"`

	// Page reclaims (soft page faults).
	RuMinflt uint64 `json:"ru_minflt"`

	// Page faults (hard page faults).
	RuMajflt uint64 `json:"ru_majflt"`

	// Number of swaps.
	RuNswap uint64 `json:"ru_nswap"`

	// Block input operations.
	RuInblock uint64 `json:"ru_inblock"`

	// Block output operations.
	RuOublock uint64 `json:"ru_oublock"`

	// IPC messages sent.
	RuMsgsnd uint64 `json:"ru_msgsnd"`

	// IPC messages received.
	RuMsgrcv uint64 `json:"ru_msgrcv"`

	// Signals received.
	RuNsignals uint64 `json:"ru_nsignals"`

	// Voluntary context switches.
	RuNvcsw uint64 `json:"ru_nvcsw"`

	// Involuntary context switches.
	RuNivcsw uint64 `json:"ru_nivcsw"`
}

type Option func(*WorkerSettings)

func WithLogLevel(level WorkerLogLevel) Option {
	return func(s *WorkerSettings) { s.LogLevel = level }
}

func WithLogTags(tags ...WorkerLogTag) Option {
	return func(s *WorkerSettings) { s.LogTags = tags }
}

func WithRtcMinPort(port uint16) Option {
	return func(s *WorkerSettings) { s.RtcMinPort = port }
}

func WithRtcMaxPort(port uint16) Option {
	return func(s *WorkerSettings) { s.RtcMaxPort = port }
}

// WithDtlsCert sets the PEM certificate and private key files.
func WithDtlsCert(certFile, keyFile string) Option {
	return func(s *WorkerSettings) {
		s.DtlsCertificateFile = certFile
		s.DtlsPrivateKeyFile = keyFile
	}
}

func WithLibwebrtcFieldTrials(trials string) Option {
	return func(s *WorkerSettings) { s.LibwebrtcFieldTrials = trials }
}

func WithDisableLiburing() Option {
	return func(s *WorkerSettings) { s.DisableLiburing = true }
}

func WithAppData(appData H) Option {
	return func(s *WorkerSettings) { s.AppData = appData }
}

func WithWorkerBin(bin string) Option {
	return func(s *WorkerSettings) { s.WorkerBin = bin }
}

func WithWorkerVersion(version string) Option {
	return func(s *WorkerSettings) { s.WorkerVersion = version }
}

func WithLauncher(launcher Launcher) Option {
	return func(s *WorkerSettings) { s.Launcher = launcher }
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *WorkerSettings) { s.RequestTimeout = timeout }
}

func WithStartTimeout(timeout time.Duration) Option {
	return func(s *WorkerSettings) { s.StartTimeout = timeout }
}

func WithCustomLogger(logger logr.Logger) Option {
	return func(s *WorkerSettings) { s.Logger = logger }
}

package mediasoup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/go-logr/logr"
)

// Process is a launched worker process.
type Process interface {
	Pid() int
	// Wait blocks until the process exits.
	Wait() error
	Signal(sig os.Signal) error
	Kill() error
}

// Pipes are the two pipe pairs connecting the worker. Writers send to the
// worker, readers receive from it.
type Pipes struct {
	ControlWriter io.WriteCloser
	ControlReader io.ReadCloser
	PayloadWriter io.WriteCloser
	PayloadReader io.ReadCloser
}

// Close closes every pipe end.
func (p Pipes) Close() error {
	var errs []error
	for _, c := range []io.Closer{p.ControlWriter, p.ControlReader, p.PayloadWriter, p.PayloadReader} {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Launcher starts a worker process. Tests substitute an in-process fake.
type Launcher interface {
	Launch(ctx context.Context, settings *WorkerSettings) (Process, Pipes, error)
}

// ExecLauncher runs the worker binary with os/exec. The worker reads requests
// on fd 3 and 5 and writes responses on fd 4 and 6.
type ExecLauncher struct {
	Logger logr.Logger
}

func (l ExecLauncher) Launch(ctx context.Context, settings *WorkerSettings) (Process, Pipes, error) {
	bin := settings.WorkerBin
	args := settings.Args()

	// WorkerBin may carry a wrapper, e.g. "valgrind --leak-check=full worker".
	if fields := strings.Fields(settings.WorkerBin); len(fields) > 1 {
		bin = fields[0]
		args = append(fields[1:], args...)
	}

	var (
		files []*os.File
		ok    bool
	)
	defer func() {
		if !ok {
			for _, f := range files {
				f.Close()
			}
		}
	}()

	pipe := func() (r, w *os.File, err error) {
		if r, w, err = os.Pipe(); err == nil {
			files = append(files, r, w)
		}
		return
	}

	producerReader, producerWriter, err := pipe()
	if err != nil {
		return nil, Pipes{}, err
	}
	consumerReader, consumerWriter, err := pipe()
	if err != nil {
		return nil, Pipes{}, err
	}
	payloadProducerReader, payloadProducerWriter, err := pipe()
	if err != nil {
		return nil, Pipes{}, err
	}
	payloadConsumerReader, payloadConsumerWriter, err := pipe()
	if err != nil {
		return nil, Pipes{}, err
	}

	logger := l.Logger
	if logger.GetSink() == nil {
		logger = NewLogger("Worker")
	}
	logger.V(1).Info("spawning worker process", "bin", bin, "args", strings.Join(args, " "))

	cmd := exec.Command(bin, args...)
	cmd.ExtraFiles = []*os.File{producerReader, consumerWriter, payloadProducerReader, payloadConsumerWriter}
	cmd.Env = append(os.Environ(), "MEDIASOUP_VERSION="+settings.WorkerVersion)
	cmd.Stdout = &lineLogger{logger: logger.WithValues("stdout", true)}
	cmd.Stderr = &lineLogger{logger: logger.WithValues("stderr", true)}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, Pipes{}, fmt.Errorf("spawn worker: %w", err)
	}
	ok = true

	// The child owns its ends now.
	producerReader.Close()
	consumerWriter.Close()
	payloadProducerReader.Close()
	payloadConsumerWriter.Close()

	return &execProcess{cmd: cmd}, Pipes{
		ControlWriter: producerWriter,
		ControlReader: consumerReader,
		PayloadWriter: payloadProducerWriter,
		PayloadReader: payloadConsumerReader,
	}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Wait() error {
	err := p.cmd.Wait()
	if err != nil && p.cmd.ProcessState != nil {
		return fmt.Errorf("worker exited with code %d: %w", p.cmd.ProcessState.ExitCode(), err)
	}
	return err
}

func (p *execProcess) Signal(sig os.Signal) error { return p.cmd.Process.Signal(sig) }

func (p *execProcess) Kill() error { return p.cmd.Process.Kill() }

// lineLogger logs what the worker prints outside of the channel.
type lineLogger struct {
	logger logr.Logger
}

func (l *lineLogger) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			l.logger.Info(line)
		}
	}
	return len(p), nil
}

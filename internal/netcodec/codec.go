package netcodec

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/hashicorp/go-version"
)

// MaxMessageLen is the largest body accepted in either direction (4 MiB).
const MaxMessageLen = 4194304

var (
	ErrMessageTooLong = errors.New("message too long")
	ErrInvalidFrame   = errors.New("invalid frame")
)

// Codec frames whole messages over a pipe pair.
type Codec interface {
	WritePayload(payload []byte) error
	ReadPayload() ([]byte, error)
	Close() error
}

// lengthPrefixSince is the first worker release that dropped netstring framing.
var lengthPrefixSince = version.Must(version.NewVersion("3.11.0"))

// ForWorkerVersion picks the framing a worker of the given version speaks.
// Empty or unparsable versions get netstring framing.
func ForWorkerVersion(workerVersion string, w io.WriteCloser, r io.ReadCloser) Codec {
	if v, err := version.NewVersion(workerVersion); err == nil && v.GreaterThanOrEqual(lengthPrefixSince) {
		return NewNetLVCodec(w, r, binary.LittleEndian)
	}
	return NewNetStringCodec(w, r)
}

func closeBoth(w io.Closer, r io.Closer) error {
	err1 := w.Close()
	err2 := r.Close()

	if err1 != nil {
		return err1
	}
	return err2
}

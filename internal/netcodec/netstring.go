package netcodec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

const (
	separatorSymbol byte = ':'
	endSymbol       byte = ','
)

// NetStringCodec encodes each message as `<decimal-length>:<payload>,`.
type NetStringCodec struct {
	w io.WriteCloser
	c io.Closer
	r *bufio.Reader
}

func NewNetStringCodec(w io.WriteCloser, r io.ReadCloser) *NetStringCodec {
	return &NetStringCodec{
		w: w,
		c: r,
		r: bufio.NewReader(r),
	}
}

// Encode returns the netstring frame of payload.
func Encode(payload []byte) []byte {
	length := strconv.Itoa(len(payload))

	buffer := make([]byte, 0, len(length)+len(payload)+2)
	buffer = append(buffer, length...)
	buffer = append(buffer, separatorSymbol)
	buffer = append(buffer, payload...)
	buffer = append(buffer, endSymbol)

	return buffer
}

// WritePayload writes one frame with a single Write call. Oversized payloads
// are rejected without touching the writer.
func (c *NetStringCodec) WritePayload(payload []byte) error {
	if len(payload) > MaxMessageLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrMessageTooLong, len(payload), MaxMessageLen)
	}
	_, err := c.w.Write(Encode(payload))
	return err
}

// ReadPayload reads the next frame. A frame longer than MaxMessageLen is
// consumed and discarded, and ErrMessageTooLong is returned so the caller can
// keep reading.
func (c *NetStringCodec) ReadPayload() ([]byte, error) {
	head, err := c.r.ReadString(separatorSymbol)
	if err != nil {
		return nil, err
	}
	length, err := strconv.Atoi(head[:len(head)-1])
	if err != nil || length < 0 {
		return nil, fmt.Errorf("%w: bad length %q", ErrInvalidFrame, head)
	}
	if length > MaxMessageLen {
		if _, err := c.r.Discard(length + 1); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: received %d bytes, max %d", ErrMessageTooLong, length, MaxMessageLen)
	}
	payload := make([]byte, length)
	if _, err = io.ReadFull(c.r, payload); err != nil {
		return nil, err
	}
	end, err := c.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if end != endSymbol {
		return nil, fmt.Errorf("%w: missing terminator", ErrInvalidFrame)
	}
	return payload, nil
}

func (c *NetStringCodec) Close() error {
	return closeBoth(c.w, c.c)
}

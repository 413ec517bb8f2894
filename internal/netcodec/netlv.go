package netcodec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// NetLVCodec prefixes every message with its length as a uint32.
type NetLVCodec struct {
	w            io.WriteCloser
	r            io.ReadCloser
	nativeEndian binary.ByteOrder
}

func NewNetLVCodec(w io.WriteCloser, r io.ReadCloser, nativeEndian binary.ByteOrder) *NetLVCodec {
	return &NetLVCodec{
		w:            w,
		r:            r,
		nativeEndian: nativeEndian,
	}
}

func (c *NetLVCodec) WritePayload(payload []byte) error {
	if len(payload) > MaxMessageLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrMessageTooLong, len(payload), MaxMessageLen)
	}
	buffer := make([]byte, 4+len(payload))
	c.nativeEndian.PutUint32(buffer, uint32(len(payload)))
	copy(buffer[4:], payload)

	_, err := c.w.Write(buffer)
	return err
}

func (c *NetLVCodec) ReadPayload() ([]byte, error) {
	var payloadLen uint32
	if err := binary.Read(c.r, c.nativeEndian, &payloadLen); err != nil {
		return nil, err
	}
	if payloadLen > MaxMessageLen {
		if _, err := io.CopyN(io.Discard, c.r, int64(payloadLen)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: received %d bytes, max %d", ErrMessageTooLong, payloadLen, MaxMessageLen)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *NetLVCodec) Close() error {
	return closeBoth(c.w, c.r)
}

package transport

import (
	"encoding/binary"
	"fmt"
	"io"

	"crewctl/pkg/proto"
)

// MaxMessageSize is the maximum JSON payload size for a single frame, per
// spec.md §4.1.1.
const MaxMessageSize = 16 * 1024 * 1024

// writeFrame writes one length-prefixed AgentMessage. It does not flush:
// w must be flushed by the caller if it buffers; net.Conn writes are
// unbuffered, so on a connection the frame is sent once this returns.
func writeFrame(w io.Writer, msg *proto.AgentMessage) error {
	payload, err := msg.ToJSON()
	if err != nil {
		return err
	}
	if len(payload) > MaxMessageSize {
		return ErrMessageTooLarge
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("transport: write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("transport: write payload: %w", err)
	}
	return nil
}

// readFrame blocks until a full length-prefixed frame is available and
// decodes it into an AgentMessage. The declared length is checked against
// MaxMessageSize before any payload buffer is allocated.
func readFrame(r io.Reader) (*proto.AgentMessage, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, fmt.Errorf("transport: read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, fmt.Errorf("transport: read payload: %w", err)
	}

	msg, err := proto.FromJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("transport: decode payload: %w", err)
	}
	return msg, nil
}

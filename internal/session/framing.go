package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxFrameLen bounds a single inbound frame. Generous relative to any
// legitimate command (the largest, CreateTask, is a few dozen bytes
// plus a title), but small enough that a corrupt length prefix cannot
// be used to exhaust memory.
const maxFrameLen = 1 << 20

var errFrameTooLarge = errors.New("session: frame exceeds maximum length")

// writeFrame writes a 4-byte little-endian length prefix followed by
// frame. The game endpoint has no WebSocket library available in the
// retrieved dependency set, so framing over the hijacked TCP
// connection is done by hand with the same length-prefix-then-payload
// shape used elsewhere in the pack for raw stream framing.
func writeFrame(w io.Writer, frame []byte) error {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(frame)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("session: writing frame header: %w", err)
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("session: writing frame body: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed frame from r.
func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length > maxFrameLen {
		return nil, errFrameTooLarge
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("session: reading frame body: %w", err)
	}
	return buf, nil
}

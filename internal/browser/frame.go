// Package browser implements the native-messaging side of the host: a
// length-prefixed JSON framing over stdin/stdout, the reader that turns
// frames into router events, and the writer that reports ranked documents
// back to the extension.
package browser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
)

// DefaultMaxFrameBytes caps an inbound frame's declared length.
const DefaultMaxFrameBytes = 64 << 20

const headerSize = 4

// ReadFrame reads one frame: a 4-byte length in host byte order followed by
// that many payload bytes. It returns io.EOF only when the stream ends
// cleanly on a frame boundary. A partial header, a short payload or a
// length above maxBytes is a protocol violation.
func ReadFrame(r io.Reader, maxBytes uint32) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, herrors.ProtocolError("read frame header", err)
	}

	length := binary.NativeEndian.Uint32(header[:])
	if maxBytes > 0 && length > maxBytes {
		return nil, herrors.New(herrors.ErrCodeFrameTooLarge,
			fmt.Sprintf("frame of %d bytes exceeds limit of %d", length, maxBytes), nil)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, herrors.ProtocolError(fmt.Sprintf("read %d byte frame payload", length), err)
	}
	return payload, nil
}

// WriteFrame writes payload as one frame with a single Write call.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("frame payload of %d bytes does not fit a 32-bit length", len(payload))
	}
	buf := make([]byte, headerSize+len(payload))
	binary.NativeEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[headerSize:], payload)
	_, err := w.Write(buf)
	return err
}

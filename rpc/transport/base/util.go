package base

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/ValentinKolb/logicbridge/rpc/transport"
)

const (
	headerSize = 13
	flagError  = 0x80 // set on responses that carry an error message
	modeMask   = 0x7f
)

// writeFrame writes a frame to the connection with the format:
// - 1 byte: mode, with flagError set for error responses
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload (response envelope or error message)
func writeFrame(conn net.Conn, mode transport.Mode, isErr bool, requestID uint64, data []byte) error {
	header := make([]byte, headerSize)
	header[0] = byte(mode) & modeMask
	if isErr {
		header[0] |= flagError
	}
	binary.BigEndian.PutUint64(header[1:9], requestID)
	binary.BigEndian.PutUint32(header[9:13], uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// frame is a decoded frame
type frame struct {
	mode      transport.Mode
	isErr     bool
	requestID uint64
	data      []byte
}

// readFrame reads a frame from the connection using the provided buffer
// If the buffer is too small, it will allocate a new temporary buffer for the data
func readFrame(conn net.Conn, buf []byte) (frame, error) {
	if len(buf) < headerSize {
		buf = make([]byte, headerSize)
	}

	if _, err := io.ReadFull(conn, buf[:headerSize]); err != nil {
		return frame{}, err
	}

	f := frame{
		mode:      transport.Mode(buf[0] & modeMask),
		isErr:     buf[0]&flagError != 0,
		requestID: binary.BigEndian.Uint64(buf[1:9]),
	}
	contentLength := binary.BigEndian.Uint32(buf[9:13])

	if contentLength == 0 {
		f.data = []byte{}
		return f, nil
	}

	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}
	if _, err := io.ReadFull(conn, buf[:contentLength]); err != nil {
		return frame{}, err
	}
	f.data = buf[:contentLength]
	return f, nil
}

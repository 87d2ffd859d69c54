package sandbox

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Stream identifies which output channel a frame belongs to.
type Stream byte

const (
	StreamStdout Stream = 1
	StreamStderr Stream = 2
)

// Frame is one demultiplexed chunk of sandbox output.
type Frame struct {
	Stream Stream
	Data   []byte
}

// FrameDecoder reads the multiplexed stream coming out of the sandbox
// attach socket. Each frame is an 8-byte header, byte 0 the stream id and
// bytes 4..8 a big-endian payload length, followed by the payload bytes.
type FrameDecoder struct {
	r io.Reader
}

func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{r: r}
}

// Next returns the next frame. It returns io.EOF at a clean frame boundary
// and also when the stream ends mid-header: a truncated trailing frame
// terminates iteration instead of failing it. A payload cut short is
// delivered with the bytes that did arrive.
func (d *FrameDecoder) Next() (Frame, error) {
	var header [8]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Frame{}, io.EOF
		}
		return Frame{}, err
	}

	size := binary.BigEndian.Uint32(header[4:8])
	data := make([]byte, size)
	n, err := io.ReadFull(d.r, data)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if n == 0 {
				return Frame{}, io.EOF
			}
			return Frame{Stream: Stream(header[0]), Data: data[:n]}, nil
		}
		return Frame{}, err
	}
	return Frame{Stream: Stream(header[0]), Data: data}, nil
}

// Demux drains r, routing frame payloads by stream tag. Frames with an
// unknown tag are discarded.
func Demux(r io.Reader, onStdout, onStderr func(p []byte)) error {
	dec := NewFrameDecoder(r)
	for {
		frame, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch frame.Stream {
		case StreamStdout:
			onStdout(frame.Data)
		case StreamStderr:
			onStderr(frame.Data)
		}
	}
}

// DemuxBuffered is Demux into in-memory accumulators.
func DemuxBuffered(r io.Reader) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	err = Demux(r, func(p []byte) { outBuf.Write(p) }, func(p []byte) { errBuf.Write(p) })
	return outBuf.String(), errBuf.String(), err
}

package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"

	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
)

// DefaultMaxFrameSize bounds a single encoded message.
const DefaultMaxFrameSize = 4 << 20

// LengthPrefixedJSON frames each JSON message with a 4-byte big-endian length.
// It holds no per-connection state and may be shared.
type LengthPrefixedJSON struct {
	maxFrame int
}

// NewLengthPrefixedJSON returns a length-prefixed JSON formatter. A
// non-positive maxFrame selects DefaultMaxFrameSize.
func NewLengthPrefixedJSON(maxFrame int) *LengthPrefixedJSON {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &LengthPrefixedJSON{maxFrame: maxFrame}
}

// Name implements Formatter
func (f *LengthPrefixedJSON) Name() string { return "json" }

// Encode implements Formatter
func (f *LengthPrefixedJSON) Encode(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return perrors.EncodeFailed(f.Name(), err)
	}
	if len(body) > f.maxFrame {
		return perrors.FrameTooLarge(f.Name(), len(body), f.maxFrame)
	}

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(body)))
	copy(frame[4:], body)
	if _, err := w.Write(frame); err != nil {
		return err
	}
	return nil
}

// Decode implements Formatter
func (f *LengthPrefixedJSON) Decode(r io.Reader, v interface{}) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}
	size := int(binary.BigEndian.Uint32(header[:]))
	if size > f.maxFrame {
		return perrors.FrameTooLarge(f.Name(), size, f.maxFrame)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return perrors.DecodeFailed(f.Name(), err)
	}
	return nil
}

// LineJSON writes one JSON document per line. It buffers reads, so an
// instance is bound to the first reader it decodes from.
type LineJSON struct {
	maxLine int
	src     io.Reader
	reader  *bufio.Reader
}

// NewLineJSON returns a newline-delimited JSON formatter.
func NewLineJSON(maxLine int) *LineJSON {
	if maxLine <= 0 {
		maxLine = DefaultMaxFrameSize
	}
	return &LineJSON{maxLine: maxLine}
}

// Name implements Formatter
func (f *LineJSON) Name() string { return "ndjson" }

// Encode implements Formatter
func (f *LineJSON) Encode(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return perrors.EncodeFailed(f.Name(), err)
	}
	if len(body) > f.maxLine {
		return perrors.FrameTooLarge(f.Name(), len(body), f.maxLine)
	}
	body = append(body, '\n')
	_, err = w.Write(body)
	return err
}

// Decode implements Formatter
func (f *LineJSON) Decode(r io.Reader, v interface{}) error {
	if f.reader == nil || f.src != r {
		f.src = r
		f.reader = bufio.NewReader(r)
	}

	var line []byte
	for len(line) == 0 {
		var err error
		if line, err = f.readLine(); err != nil {
			return err
		}
		line = bytes.TrimSpace(line)
	}
	if err := json.Unmarshal(line, v); err != nil {
		return perrors.DecodeFailed(f.Name(), err)
	}
	return nil
}

// readLine returns the next line without its terminator, bounded by maxLine.
func (f *LineJSON) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := f.reader.ReadLine()
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > f.maxLine {
			return nil, perrors.FrameTooLarge(f.Name(), len(line), f.maxLine)
		}
		if !isPrefix {
			return line, nil
		}
	}
}

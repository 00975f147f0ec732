// Package wav reads RIFF/WAVE containers into raw sample bytes.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrNotWave     = errors.New("not a RIFF/WAVE file")
	ErrNoFormat    = errors.New("missing fmt chunk")
	ErrNoData      = errors.New("missing data chunk")
	ErrUnsupported = errors.New("unsupported audio format")
)

// Stream is a decoded audio container: format metadata plus the raw
// sample bytes exactly as stored in the data chunk.
type Stream struct {
	Channels    int
	SampleRate  int
	SampleWidth int // bytes per sample
	Frames      int
	Data        []byte
}

// Mono reports whether the stream carries a single channel. Non-mono
// input is usable but breaks RTP timing assumptions downstream.
func (s *Stream) Mono() bool { return s.Channels == 1 }

// wave format tags we accept: linear PCM plus the two G.711 variants
// the transcoder emits.
const (
	formatPCM  = 0x0001
	formatALaw = 0x0006
	formatULaw = 0x0007
)

// Decode reads the container at name. The data chunk is returned as-is:
// no resampling, no channel mixing.
func Decode(name string) (*Stream, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (*Stream, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, ErrNotWave
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWave
	}

	s := &Stream{}
	var haveFmt bool
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("unable to read chunk header: %v", err)
		}
		size := binary.LittleEndian.Uint32(hdr[4:])

		switch string(hdr[0:4]) {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("unable to read fmt chunk: %v", err)
			}
			tag := binary.LittleEndian.Uint16(body[0:])
			if tag != formatPCM && tag != formatALaw && tag != formatULaw {
				return nil, fmt.Errorf("%w: tag 0x%04x", ErrUnsupported, tag)
			}
			s.Channels = int(binary.LittleEndian.Uint16(body[2:]))
			s.SampleRate = int(binary.LittleEndian.Uint32(body[4:]))
			s.SampleWidth = int(binary.LittleEndian.Uint16(body[14:])) / 8
			if s.Channels == 0 || s.SampleRate == 0 || s.SampleWidth == 0 {
				return nil, fmt.Errorf("%w: bad fmt chunk", ErrNotWave)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, ErrNoFormat
			}
			s.Data = make([]byte, size)
			if _, err := io.ReadFull(r, s.Data); err != nil {
				return nil, fmt.Errorf("data chunk truncated: %v", err)
			}
			s.Frames = len(s.Data) / (s.Channels * s.SampleWidth)
			return s, nil
		default:
			// LIST, fact and friends. Chunks are word-aligned.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("unable to skip %q chunk: %v", hdr[0:4], err)
			}
			continue
		}

		if size%2 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				break
			}
		}
	}

	if !haveFmt {
		return nil, ErrNoFormat
	}
	return nil, ErrNoData
}

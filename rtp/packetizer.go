package rtp

import (
	"errors"
	"fmt"
)

var (
	ErrPacketSize  = errors.New("packet size must be positive")
	ErrPayloadType = errors.New("payload type out of range")
)

// Silence is the filler byte appended to the final short chunk. 0x7F
// is what existing captures downstream scenarios were recorded with,
// so it stays fixed regardless of the selected payload type.
const Silence = 0x7F

const (
	// DefaultSSRC matches the stream identifier used by the captures
	// our SIPp scenarios already reference.
	DefaultSSRC = 0xABCDEF01

	DefaultInitialSequence = 1
)

// Config parameterizes a Packetizer.
type Config struct {
	PayloadType      uint8
	PacketSize       int
	InitialSequence  uint16
	InitialTimestamp uint32
	SSRC             uint32
}

// Packetizer splits raw sample bytes into fixed-size RTP packets. It
// is a one-shot forward iterator: each Next call yields the following
// chunk until the input is exhausted.
type Packetizer struct {
	cfg  Config
	data []byte
	next int // chunk index
}

// NewPacketizer validates cfg and returns an iterator over data. The
// data slice is not copied; it must stay unmodified while iterating.
func NewPacketizer(data []byte, cfg Config) (*Packetizer, error) {
	if cfg.PacketSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrPacketSize, cfg.PacketSize)
	}
	if cfg.PayloadType > 127 {
		return nil, fmt.Errorf("%w: %d", ErrPayloadType, cfg.PayloadType)
	}
	if cfg.SSRC == 0 {
		cfg.SSRC = DefaultSSRC
	}
	return &Packetizer{cfg: cfg, data: data}, nil
}

// Count returns the total number of packets the iterator will yield:
// ceil(len(data) / PacketSize), including the padded final packet.
func (p *Packetizer) Count() int {
	return (len(p.data) + p.cfg.PacketSize - 1) / p.cfg.PacketSize
}

// Next yields the packet for the next chunk, or ok=false once the
// input is exhausted.
//
// Chunk i carries bytes [i*P, (i+1)*P) of the input; the final chunk
// is right-padded with Silence up to exactly P bytes. Sequence numbers
// run (initial + i) mod 65536 and the timestamp advances by P sample
// units per packet.
func (p *Packetizer) Next() (Packet, bool) {
	size := p.cfg.PacketSize
	off := p.next * size
	if off >= len(p.data) {
		return Packet{}, false
	}

	payload := make([]byte, size)
	n := copy(payload, p.data[off:])
	for i := n; i < size; i++ {
		payload[i] = Silence
	}

	pkt := Packet{
		PayloadType:    p.cfg.PayloadType,
		SequenceNumber: p.cfg.InitialSequence + uint16(p.next),
		Timestamp:      p.cfg.InitialTimestamp + uint32(p.next)*uint32(size),
		SSRC:           p.cfg.SSRC,
		Payload:        payload,
	}
	p.next++
	return pkt, true
}

// Package rtp builds RTP packets from raw audio sample bytes.
package rtp

import (
	"encoding/binary"
)

// HeaderSize is the fixed RTP header length: this tool never emits
// CSRC entries or header extensions.
const HeaderSize = 12

// Fixed header fields for a plain media stream.
const (
	version   = 2
	padding   = 0
	extension = 0
	csrcCount = 0
	marker    = 0
)

// Well-known static payload types.
const (
	PayloadTypePCMU = 0
	PayloadTypePCMA = 8
)

// Packet is one RTP protocol unit. Payload length always equals the
// packetizer's configured packet size.
type Packet struct {
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	Payload        []byte
}

// Marshal serializes the packet as the 12-byte header followed by the
// payload, in network byte order.
func (p *Packet) Marshal() []byte {
	buf := make([]byte, HeaderSize+len(p.Payload))
	buf[0] = version<<6 | padding<<5 | extension<<4 | csrcCount
	buf[1] = marker<<7 | p.PayloadType
	binary.BigEndian.PutUint16(buf[2:], p.SequenceNumber)
	binary.BigEndian.PutUint32(buf[4:], p.Timestamp)
	binary.BigEndian.PutUint32(buf[8:], p.SSRC)
	copy(buf[HeaderSize:], p.Payload)
	return buf
}

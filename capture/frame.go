// Package capture turns RTP packet bytes into Ethernet frames and
// persists them as pcap files that SIPp and protocol analyzers can
// replay.
package capture

import (
	"fmt"
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// Synthetic frames carry fixed locally-administered MACs; replay tools
// only look at the IP/UDP layers.
var (
	srcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dstMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x66}
)

// Endpoints is the addressing stamped onto every frame of a stream.
type Endpoints struct {
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
}

func (e Endpoints) validate() error {
	if e.SrcIP.To4() == nil {
		return fmt.Errorf("source IP is not IPv4: %v", e.SrcIP)
	}
	if e.DstIP.To4() == nil {
		return fmt.Errorf("destination IP is not IPv4: %v", e.DstIP)
	}
	return nil
}

// BuildFrame wraps payload in Ethernet/IPv4/UDP headers. Length and
// checksum fields are computed from the assembled layers, never
// hard-coded; payload bytes pass through unmodified.
func BuildFrame(ep Endpoints, payload []byte) ([]byte, error) {
	if err := ep.validate(); err != nil {
		return nil, err
	}

	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    ep.SrcIP.To4(),
		DstIP:    ep.DstIP.To4(),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(ep.SrcPort),
		DstPort: layers.UDPPort(ep.DstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, fmt.Errorf("unable to bind UDP checksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("unable to serialize frame: %v", err)
	}
	return buf.Bytes(), nil
}

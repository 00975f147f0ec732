package capture

import (
	"fmt"
	"os"
	"slices"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

// Ports lists the unique UDP ports carrying RTP-looking traffic in a
// capture, ascending.
type Ports struct {
	Src []uint16
	Dst []uint16
}

// ScanRTPPorts reads the capture at name and collects source and
// destination UDP ports of records whose payload starts with an RTP
// version-2 header. Only Ethernet captures are supported, matching
// what WriteFile produces.
func ScanRTPPorts(name string) (Ports, error) {
	f, err := os.Open(name)
	if err != nil {
		return Ports{}, fmt.Errorf("unable to open capture file: %v", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return Ports{}, fmt.Errorf("unable to read capture file: %v", err)
	}
	if r.LinkType() != layers.LinkTypeEthernet {
		return Ports{}, fmt.Errorf("unsupported capture type: %s", r.LinkType())
	}

	src := make(map[uint16]struct{})
	dst := make(map[uint16]struct{})
	source := gopacket.NewPacketSource(r, r.LinkType())
	for packet := range source.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp := udpLayer.(*layers.UDP)
		if !looksLikeRTP(udp.Payload) {
			continue
		}
		src[uint16(udp.SrcPort)] = struct{}{}
		dst[uint16(udp.DstPort)] = struct{}{}
	}

	return Ports{Src: sorted(src), Dst: sorted(dst)}, nil
}

// looksLikeRTP checks the version bits and minimum header length. Good
// enough to separate media records from stray traffic in a capture.
func looksLikeRTP(payload []byte) bool {
	return len(payload) >= 12 && payload[0]>>6 == 2
}

func sorted(set map[uint16]struct{}) []uint16 {
	ports := make([]uint16, 0, len(set))
	for p := range set {
		ports = append(ports, p)
	}
	slices.Sort(ports)
	return ports
}

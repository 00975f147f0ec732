package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

// SnapLen is the snapshot length recorded in the pcap global header.
const SnapLen = 65536

// WriteFile persists frames, in order, as an Ethernet pcap at name.
// Record timestamps advance by interval per frame so replay pacing
// follows the RTP timeline. An existing file is replaced. If any write
// fails the partial file is removed; no structurally invalid capture
// is left behind.
func WriteFile(name string, frames [][]byte, interval time.Duration) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create capture file: %v", err)
	}

	if err := writeAll(f, frames, interval); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("unable to close capture file: %v", err)
	}
	return nil
}

func writeAll(f *os.File, frames [][]byte, interval time.Duration) error {
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(SnapLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("unable to write capture header: %v", err)
	}

	ts := time.Now()
	for i, frame := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     ts.Add(time.Duration(i) * interval),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		if err := w.WritePacket(ci, frame); err != nil {
			return fmt.Errorf("unable to write record %d: %v", i, err)
		}
	}
	return nil
}

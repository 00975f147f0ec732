package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/novartc/rtpgen/capture"
	"github.com/novartc/rtpgen/rtp"
	"github.com/novartc/rtpgen/wav"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	audioExt   = ".wav"
	captureExt = ".pcap"
)

type convertConfig struct {
	Input       string
	Output      string
	Pattern     string
	SrcIP       string
	DstIP       string
	SrcPort     int
	DstPort     int
	PayloadType int
	PacketSize  int
	Jobs        int
}

func newConvertCommand() *cobra.Command {
	var opts convertConfig

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "convert WAV audio into RTP pcap captures",
		Long:  "convert WAV audio into RTP pcap captures for SIPp media playback",
		Run: func(cmd *cobra.Command, args []string) {
			info, err := os.Stat(opts.Input)
			if err != nil {
				slog.Error("input not found", "input", opts.Input, "error", err)
				os.Exit(1)
			}

			if info.IsDir() {
				succeeded, failed := runBatch(opts)
				slog.Info("conversion complete", "succeeded", succeeded, "failed", failed)
				return
			}

			if dir := filepath.Dir(opts.Output); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					slog.Error("unable to create output directory", "dir", dir, "error", err)
					os.Exit(1)
				}
			}
			if err := convertFile(opts.Input, opts.Output, opts); err != nil {
				slog.Error("conversion failed", "file", opts.Input, "error", err)
				os.Exit(1)
			}
			slog.Info("conversion completed", "file", opts.Input, "output", opts.Output)
		},
	}

	set := cmd.Flags()
	set.StringVarP(&opts.Input, "input", "i", "", "input WAV file or directory")
	set.StringVarP(&opts.Output, "output", "o", "", "output pcap file or directory")
	set.StringVarP(&opts.Pattern, "pattern", "p", "", "process only files whose name contains this substring (directory mode)")
	set.StringVar(&opts.SrcIP, "src-ip", "192.168.1.1", "source IP address")
	set.StringVar(&opts.DstIP, "dst-ip", "192.168.1.2", "destination IP address")
	set.IntVar(&opts.SrcPort, "src-port", 10000, "source UDP port")
	set.IntVar(&opts.DstPort, "dst-port", 20000, "destination UDP port")
	set.IntVar(&opts.PayloadType, "payload-type", rtp.PayloadTypePCMU, "RTP payload type: 0=PCMU, 8=PCMA")
	set.IntVar(&opts.PacketSize, "packet-size", 160, "audio bytes per packet")
	set.IntVar(&opts.Jobs, "jobs", 1, "number of files converted in parallel (directory mode)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// runBatch converts every matching WAV file under opts.Input and
// returns the success/failure tally. A failed file never aborts the
// batch.
func runBatch(opts convertConfig) (int64, int64) {
	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		slog.Error("unable to create output directory", "dir", opts.Output, "error", err)
		return 0, 0
	}

	entries, err := os.ReadDir(opts.Input)
	if err != nil {
		slog.Error("unable to read input directory", "dir", opts.Input, "error", err)
		return 0, 0
	}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	var g errgroup.Group
	g.SetLimit(jobs)

	var succeeded, failed atomic.Int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), audioExt) {
			continue
		}
		if opts.Pattern != "" && !strings.Contains(name, opts.Pattern) {
			continue
		}

		in := filepath.Join(opts.Input, name)
		out := filepath.Join(opts.Output, strings.TrimSuffix(name, filepath.Ext(name))+captureExt)
		g.Go(func() error {
			if err := convertFile(in, out, opts); err != nil {
				slog.Error("conversion failed", "file", in, "error", err)
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return succeeded.Load(), failed.Load()
}

// convertFile runs the per-file pipeline: decode, packetize, frame,
// write. Errors are prefixed with the failing stage.
func convertFile(in, out string, opts convertConfig) error {
	ep, err := endpoints(opts)
	if err != nil {
		return fmt.Errorf("config: %v", err)
	}

	stream, err := wav.Decode(in)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	slog.Info(
		"processing audio",
		"file", in,
		"channels", stream.Channels,
		"rate", stream.SampleRate,
		"width", stream.SampleWidth,
		"frames", stream.Frames,
	)
	if !stream.Mono() {
		slog.Warn("audio is not mono, RTP timing may be wrong", "file", in, "channels", stream.Channels)
	}

	if opts.PayloadType < 0 || opts.PayloadType > 127 {
		return fmt.Errorf("packetize: %w: %d", rtp.ErrPayloadType, opts.PayloadType)
	}
	pktz, err := rtp.NewPacketizer(stream.Data, rtp.Config{
		PayloadType:     uint8(opts.PayloadType),
		PacketSize:      opts.PacketSize,
		InitialSequence: rtp.DefaultInitialSequence,
	})
	if err != nil {
		return fmt.Errorf("packetize: %w", err)
	}

	frames := make([][]byte, 0, pktz.Count())
	for {
		pkt, ok := pktz.Next()
		if !ok {
			break
		}
		frame, err := capture.BuildFrame(ep, pkt.Marshal())
		if err != nil {
			return fmt.Errorf("frame: %v", err)
		}
		frames = append(frames, frame)
	}

	interval := time.Duration(opts.PacketSize) * time.Second / time.Duration(stream.SampleRate)
	if err := capture.WriteFile(out, frames, interval); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	slog.Info("capture written", "file", out, "packets", len(frames))
	return nil
}

func endpoints(opts convertConfig) (capture.Endpoints, error) {
	src := net.ParseIP(opts.SrcIP)
	if src == nil {
		return capture.Endpoints{}, fmt.Errorf("invalid source IP: %q", opts.SrcIP)
	}
	dst := net.ParseIP(opts.DstIP)
	if dst == nil {
		return capture.Endpoints{}, fmt.Errorf("invalid destination IP: %q", opts.DstIP)
	}
	if opts.SrcPort <= 0 || opts.SrcPort > 65535 || opts.DstPort <= 0 || opts.DstPort > 65535 {
		return capture.Endpoints{}, fmt.Errorf("invalid UDP port: %d -> %d", opts.SrcPort, opts.DstPort)
	}
	return capture.Endpoints{
		SrcIP:   src,
		DstIP:   dst,
		SrcPort: uint16(opts.SrcPort),
		DstPort: uint16(opts.DstPort),
	}, nil
}

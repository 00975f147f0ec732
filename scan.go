package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/novartc/rtpgen/capture"
	"github.com/novartc/rtpgen/scenario"
	"github.com/spf13/cobra"
)

// Scanning more than a few captures per directory takes ages and adds
// nothing; the first ones establish the port plan.
const maxPcapScans = 3

type scanConfig struct {
	File      string
	Directory string
	Pcap      string
}

func newScanCommand() *cobra.Command {
	var opts scanConfig

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "extract RTP port usage from SIPp scenarios and captures",
		Long:  "extract RTP port usage from SIPp scenario files, launch scripts and pcap captures",
		Run: func(cmd *cobra.Command, args []string) {
			switch {
			case opts.File != "":
				if err := scanScenario(opts.File); err != nil {
					slog.Error("scan failed", "file", opts.File, "error", err)
					os.Exit(1)
				}
			case opts.Directory != "":
				if err := scanDirectory(opts.Directory); err != nil {
					slog.Error("scan failed", "dir", opts.Directory, "error", err)
					os.Exit(1)
				}
			case opts.Pcap != "":
				if err := scanPcap(opts.Pcap); err != nil {
					slog.Error("scan failed", "file", opts.Pcap, "error", err)
					os.Exit(1)
				}
			default:
				_ = cmd.Help()
			}
		},
	}

	set := cmd.Flags()
	set.StringVarP(&opts.File, "file", "f", "", "SIPp XML scenario file to analyze")
	set.StringVarP(&opts.Directory, "directory", "d", "", "directory of scenarios and captures to analyze")
	set.StringVarP(&opts.Pcap, "pcap", "p", "", "pcap file to scan for RTP traffic")
	return cmd
}

func scanScenario(name string) error {
	report, err := scenario.ParseFile(name)
	if err != nil {
		return err
	}

	fmt.Printf("Scenario: %s\n", name)
	for varName, value := range report.Variables {
		fmt.Printf("  port variable: %s = %s\n", varName, value)
	}
	for _, port := range report.AudioPorts {
		fmt.Printf("  m=audio port: %d\n", port)
	}
	for _, port := range report.StreamPorts {
		fmt.Printf("  rtp_stream port: %d\n", port)
	}
	if report.UsesMediaPort {
		fmt.Println("  uses [media_port]")
	}
	if report.UsesAutoMediaPort {
		fmt.Println("  uses [auto_media_port]")
	}
	if report.Empty() {
		fmt.Println("  no RTP port information found")
		return nil
	}

	// Port keywords resolve from the sipp command line, so check the
	// launch scripts sitting next to the scenario.
	dir := filepath.Dir(name)
	args, err := scenario.ScanScripts(dir)
	if err != nil {
		slog.Warn("unable to scan launch scripts", "dir", dir, "error", err)
		return nil
	}
	if args.MediaPort != "" {
		fmt.Printf("  script media port (-mp): %s\n", args.MediaPort)
	}
	if args.MinRTPPort != "" {
		fmt.Printf("  script min RTP port: %s\n", args.MinRTPPort)
	}
	if args.MaxRTPPort != "" {
		fmt.Printf("  script max RTP port: %s\n", args.MaxRTPPort)
	}
	return nil
}

func scanPcap(name string) error {
	ports, err := capture.ScanRTPPorts(name)
	if err != nil {
		return err
	}
	if len(ports.Src) == 0 && len(ports.Dst) == 0 {
		fmt.Printf("%s: no RTP traffic found\n", name)
		return nil
	}
	fmt.Printf("%s: RTP source ports %v, destination ports %v\n", name, ports.Src, ports.Dst)
	return nil
}

func scanDirectory(dir string) error {
	var scenarios, pcaps []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xml":
			scenarios = append(scenarios, path)
		case captureExt:
			pcaps = append(pcaps, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Found %d scenario files and %d captures\n", len(scenarios), len(pcaps))

	for _, name := range scenarios {
		if err := scanScenario(name); err != nil {
			slog.Error("unable to scan scenario", "file", name, "error", err)
		}
	}
	if len(pcaps) > maxPcapScans {
		pcaps = pcaps[:maxPcapScans]
	}
	for _, name := range pcaps {
		if err := scanPcap(name); err != nil {
			slog.Error("unable to scan capture", "file", name, "error", err)
		}
	}
	return nil
}

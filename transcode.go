package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// codec targets the transcoder produces per input file, keyed by the
// ffmpeg encoder name. All variants are mono 8 kHz, the rates SIPp
// scenarios expect.
var transcodeTargets = []struct {
	codec  string
	suffix string
}{
	{"pcm_alaw", "g711a"},
	{"pcm_mulaw", "g711u"},
	{"g722", "g722"},
	{"ilbc", "ilbc"},
}

func newTranscodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcode DIR",
		Short: "transcode WAV files into G.711/G.722/iLBC variants",
		Long:  "transcode every WAV file in DIR into G.711a, G.711u, G.722 and iLBC variants using ffmpeg",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runTranscode(args[0]); err != nil {
				slog.Error("transcode failed", "dir", args[0], "error", err)
				os.Exit(1)
			}
		},
	}
	return cmd
}

func runTranscode(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("unable to read input directory: %v", err)
	}

	outDir := filepath.Join(dir, "converted")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory: %v", err)
	}

	var succeeded, failed int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), audioExt) {
			continue
		}

		in := filepath.Join(dir, name)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		for _, target := range transcodeTargets {
			out := filepath.Join(outDir, fmt.Sprintf("%s_%s.wav", stem, target.suffix))
			if err := ffmpegEncode(in, out, target.codec); err != nil {
				slog.Error("transcode failed", "file", in, "codec", target.codec, "error", err)
				failed++
				continue
			}
			slog.Info("transcoded", "file", in, "codec", target.codec, "output", out)
			succeeded++
		}
	}

	slog.Info("transcode complete", "succeeded", succeeded, "failed", failed)
	return nil
}

func ffmpegEncode(in, out, codec string) error {
	cmd := exec.Command(
		"ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", in,
		"-acodec", codec,
		"-ac", "1",
		"-ar", "8000",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

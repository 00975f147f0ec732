package scenario

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// PortArgs are RTP port arguments found in SIPp launch scripts.
type PortArgs struct {
	MediaPort  string
	MinRTPPort string
	MaxRTPPort string
}

var (
	mpArgRe  = regexp.MustCompile(`-mp\s+(\d+)`)
	minArgRe = regexp.MustCompile(`-min_rtp_port\s+(\d+)`)
	maxArgRe = regexp.MustCompile(`-max_rtp_port\s+(\d+)`)
)

// binary artifacts that sit next to scenarios but never hold a
// command line.
var skipExt = map[string]bool{
	".pcap": true,
	".xml":  true,
	".csv":  true,
	".wav":  true,
}

// ScanScripts looks through the text files in dir for sipp invocations
// and pulls out their RTP port arguments.
func ScanScripts(dir string) (PortArgs, error) {
	var args PortArgs

	entries, err := os.ReadDir(dir)
	if err != nil {
		return args, err
	}

	for _, entry := range entries {
		if entry.IsDir() || skipExt[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		content := string(raw)
		if !strings.Contains(content, "sipp") {
			continue
		}

		if m := mpArgRe.FindStringSubmatch(content); m != nil {
			args.MediaPort = m[1]
		}
		if m := minArgRe.FindStringSubmatch(content); m != nil {
			args.MinRTPPort = m[1]
		}
		if m := maxArgRe.FindStringSubmatch(content); m != nil {
			args.MaxRTPPort = m[1]
		}
	}
	return args, nil
}

// Package scenario extracts RTP port usage from SIPp scenario files
// and their companion launch scripts.
package scenario

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pion/sdp/v3"
)

// Report collects every RTP port signal found in one scenario file.
type Report struct {
	// Variables holds scenario-global name/value pairs whose name
	// suggests a media port (contains "port", excludes SIP ports).
	Variables map[string]string
	// AudioPorts are numeric ports from m=audio lines in SDP bodies.
	AudioPorts []int
	// StreamPorts come from <nop action="rtp_stream" args="...port=N...">.
	StreamPorts []int
	// UsesMediaPort / UsesAutoMediaPort flag the SIPp keyword
	// substitutions appearing in send bodies.
	UsesMediaPort     bool
	UsesAutoMediaPort bool
}

// Empty reports whether no RTP port information was found at all.
func (r *Report) Empty() bool {
	return len(r.Variables) == 0 && len(r.AudioPorts) == 0 &&
		len(r.StreamPorts) == 0 && !r.UsesMediaPort && !r.UsesAutoMediaPort
}

var (
	mediaPortRe     = regexp.MustCompile(`\[media_port\]`)
	autoMediaPortRe = regexp.MustCompile(`\[auto_media_port\]`)
	audioLineRe     = regexp.MustCompile(`m=audio\s+(\d+|\[\w+\])`)
	streamPortRe    = regexp.MustCompile(`port=(\d+)`)
)

// ParseFile analyzes one SIPp XML scenario.
func ParseFile(name string) (*Report, error) {
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func parse(raw []byte) (*Report, error) {
	report := &Report{Variables: map[string]string{}}

	dec := xml.NewDecoder(strings.NewReader(string(raw)))
	var stack []string
	var sendDepth int
	var body strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("unable to parse scenario XML: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			switch t.Name.Local {
			case "send":
				sendDepth++
				body.Reset()
			case "nop":
				report.scanNop(t)
			default:
				if inGlobal(stack) {
					report.scanVariable(t)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "send" && sendDepth > 0 {
				sendDepth--
				report.scanSendBody(body.String())
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if sendDepth > 0 {
				body.Write(t)
			}
		}
	}
	return report, nil
}

func inGlobal(stack []string) bool {
	for _, name := range stack {
		if name == "Global" {
			return true
		}
	}
	return false
}

func (r *Report) scanVariable(elem xml.StartElement) {
	var name, value string
	for _, a := range elem.Attr {
		switch a.Name.Local {
		case "name":
			name = a.Value
		case "value":
			value = a.Value
		}
	}
	if name == "" || value == "" {
		return
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "port") && !strings.Contains(lower, "sip") {
		r.Variables[name] = value
	}
}

func (r *Report) scanNop(elem xml.StartElement) {
	var action, args string
	for _, a := range elem.Attr {
		switch a.Name.Local {
		case "action":
			action = a.Value
		case "args":
			args = a.Value
		}
	}
	if action != "rtp_stream" {
		return
	}
	if m := streamPortRe.FindStringSubmatch(args); m != nil {
		port, _ := strconv.Atoi(m[1])
		r.StreamPorts = append(r.StreamPorts, port)
	}
}

// scanSendBody inspects the message body of one <send> element. Bodies
// with SIPp keyword substitutions cannot be parsed as SDP, so those
// are matched textually; clean SDP sections go through the parser.
func (r *Report) scanSendBody(body string) {
	if mediaPortRe.MatchString(body) {
		r.UsesMediaPort = true
	}
	if autoMediaPortRe.MatchString(body) {
		r.UsesAutoMediaPort = true
	}

	i := strings.Index(body, "v=0")
	if i == -1 {
		return
	}
	if ports, ok := audioPortsFromSDP([]byte(body[i:])); ok {
		r.AudioPorts = append(r.AudioPorts, ports...)
		return
	}
	// Keyword-laden SDP: fall back to the m=audio lines directly.
	for _, m := range audioLineRe.FindAllStringSubmatch(body, -1) {
		if port, err := strconv.Atoi(m[1]); err == nil {
			r.AudioPorts = append(r.AudioPorts, port)
		}
	}
}

func audioPortsFromSDP(raw []byte) ([]int, bool) {
	var sd sdp.SessionDescription
	if err := sd.Unmarshal(raw); err != nil {
		return nil, false
	}
	var ports []int
	for _, md := range sd.MediaDescriptions {
		if md.MediaName.Media == "audio" {
			ports = append(ports, md.MediaName.Port.Value)
		}
	}
	return ports, true
}

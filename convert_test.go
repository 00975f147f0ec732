package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopacket/gopacket/pcapgo"
	"github.com/huandu/go-assert"
	pionrtp "github.com/pion/rtp"
)

func defaultOpts() convertConfig {
	return convertConfig{
		SrcIP:       "192.168.1.1",
		DstIP:       "192.168.1.2",
		SrcPort:     10000,
		DstPort:     20000,
		PayloadType: 0,
		PacketSize:  160,
		Jobs:        1,
	}
}

// writeWAV produces a mono 8-bit 8 kHz PCM container with n sample
// bytes.
func writeWAV(t *testing.T, name string, n int) {
	t.Helper()
	le := binary.LittleEndian
	var body bytes.Buffer
	body.WriteString("WAVEfmt ")
	binary.Write(&body, le, uint32(16))
	binary.Write(&body, le, uint16(1)) // PCM
	binary.Write(&body, le, uint16(1)) // mono
	binary.Write(&body, le, uint32(8000))
	binary.Write(&body, le, uint32(8000))
	binary.Write(&body, le, uint16(1))
	binary.Write(&body, le, uint16(8))
	body.WriteString("data")
	binary.Write(&body, le, uint32(n))
	for i := 0; i < n; i++ {
		body.WriteByte(byte(i))
	}

	var file bytes.Buffer
	file.WriteString("RIFF")
	binary.Write(&file, le, uint32(body.Len()))
	file.Write(body.Bytes())
	if err := os.WriteFile(name, file.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func readRecords(t *testing.T, name string) [][]byte {
	t.Helper()
	f, err := os.Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var records [][]byte
	for {
		data, _, err := r.ReadPacketData()
		if err != nil {
			break
		}
		records = append(records, data)
	}
	return records
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "speech.wav")
	out := filepath.Join(dir, "speech.pcap")
	writeWAV(t, in, 8000)

	if err := convertFile(in, out, defaultOpts()); err != nil {
		t.Fatalf("convertFile: %v", err)
	}

	records := readRecords(t, out)
	assert.Equal(t, 50, len(records))

	for i, record := range records {
		var pkt pionrtp.Packet
		if err := pkt.Unmarshal(record[42:]); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		assert.Equal(t, uint16(1+i), pkt.SequenceNumber)
		assert.Equal(t, uint32(i*160), pkt.Timestamp)
		assert.Equal(t, uint8(0), pkt.PayloadType)
		assert.Equal(t, 160, len(pkt.Payload))
	}
}

func TestConvertFilePaddedTail(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tail.wav")
	out := filepath.Join(dir, "tail.pcap")
	writeWAV(t, in, 8005)

	if err := convertFile(in, out, defaultOpts()); err != nil {
		t.Fatalf("convertFile: %v", err)
	}

	records := readRecords(t, out)
	assert.Equal(t, 51, len(records))

	var last pionrtp.Packet
	if err := last.Unmarshal(records[50][42:]); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for i := 5; i < 160; i++ {
		if last.Payload[i] != 0x7F {
			t.Fatalf("payload[%d] = %#x, want 0x7f", i, last.Payload[i])
		}
	}
}

func TestConvertFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := convertFile(filepath.Join(dir, "nope.wav"), filepath.Join(dir, "out.pcap"), defaultOpts())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("convertFile: err = %v, want fs.ErrNotExist", err)
	}
}

func TestConvertFileBadConfig(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	writeWAV(t, in, 100)

	opts := defaultOpts()
	opts.PacketSize = 0
	if err := convertFile(in, filepath.Join(dir, "out.pcap"), opts); err == nil {
		t.Fatal("convertFile accepted packet size 0")
	}

	opts = defaultOpts()
	opts.SrcIP = "not-an-ip"
	if err := convertFile(in, filepath.Join(dir, "out.pcap"), opts); err == nil {
		t.Fatal("convertFile accepted a bad source IP")
	}
}

func batchDir(t *testing.T) (string, string) {
	t.Helper()
	in := t.TempDir()
	writeWAV(t, filepath.Join(in, "a.wav"), 8000)
	writeWAV(t, filepath.Join(in, "b.wav"), 4000)
	writeWAV(t, filepath.Join(in, "menu_c.wav"), 321)
	if err := os.WriteFile(filepath.Join(in, "broken.wav"), []byte("not audio"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// Non-audio files are ignored, not failed.
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("sipp -mp 6000"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return in, filepath.Join(t.TempDir(), "captures")
}

func TestRunBatch(t *testing.T) {
	in, out := batchDir(t)

	opts := defaultOpts()
	opts.Input = in
	opts.Output = out
	succeeded, failed := runBatch(opts)

	assert.Equal(t, int64(3), succeeded)
	assert.Equal(t, int64(1), failed)

	for _, name := range []string{"a.pcap", "b.pcap", "menu_c.pcap"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "broken.pcap")); err == nil {
		t.Error("capture written for a broken input")
	}
}

func TestRunBatchParallel(t *testing.T) {
	in, out := batchDir(t)

	opts := defaultOpts()
	opts.Input = in
	opts.Output = out
	opts.Jobs = 4
	succeeded, failed := runBatch(opts)

	assert.Equal(t, int64(3), succeeded)
	assert.Equal(t, int64(1), failed)
}

func TestRunBatchPattern(t *testing.T) {
	in, out := batchDir(t)

	opts := defaultOpts()
	opts.Input = in
	opts.Output = out
	opts.Pattern = "menu"
	succeeded, failed := runBatch(opts)

	assert.Equal(t, int64(1), succeeded)
	assert.Equal(t, int64(0), failed)

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "menu_c.pcap", entries[0].Name())
}

package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"
	"time"
)

// pcmWAV собирает моно WAV 16 бит из тишины
func pcmWAV(sampleRate int, d time.Duration) []byte {
	frames := int(int64(sampleRate) * int64(d) / int64(time.Second))
	dataLen := frames * 2

	var buf bytes.Buffer
	put := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	buf.WriteString("RIFF")
	put(uint32(36 + dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	put(uint32(16))
	put(uint16(1)) // PCM
	put(uint16(1))
	put(uint32(sampleRate))
	put(uint32(sampleRate * 2))
	put(uint16(2))
	put(uint16(16))
	buf.WriteString("data")
	put(uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestSupported(t *testing.T) {
	tests := []struct {
		mimeType string
		expected bool
	}{
		{"audio/mpeg", true},
		{"audio/MPEG", true},
		{"audio/wav", true},
		{"audio/x-wav", true},
		{"audio/flac", true},
		{"audio/ogg", true},
		{"audio/ogg; codecs=vorbis", true},
		{"audio/mp4", false},
		{"audio/aac", false},
		{"audio/webm", false},
		{"audio/opus", false},
		{"text/plain", false},
		{"", false},
	}

	for _, test := range tests {
		if got := Supported(test.mimeType); got != test.expected {
			t.Errorf("Supported(%q): ожидалось %v, получено %v", test.mimeType, test.expected, got)
		}
	}
}

func TestDecodeWAV(t *testing.T) {
	data := pcmWAV(8000, time.Second)

	streamer, format, err := Decode(memory{bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("Ошибка декодирования WAV: %v", err)
	}
	defer streamer.Close()

	if format.SampleRate != 8000 || format.NumChannels != 1 {
		t.Errorf("Неожиданный формат: %+v", format)
	}
	if got := format.SampleRate.D(streamer.Len()); got != time.Second {
		t.Errorf("Ожидалась длительность 1s, получено %v", got)
	}
}

func TestDecodeWAVWithoutSeek(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader(pcmWAV(8000, 2*time.Second))}

	streamer, _, err := Decode(src)
	if err != nil {
		t.Fatalf("Ошибка декодирования WAV: %v", err)
	}
	defer streamer.Close()

	if !src.closed {
		t.Error("Источник без перемотки должен закрываться после чтения в память")
	}
	if streamer.Len() != 16000 {
		t.Errorf("Ожидалось 16000 сэмплов, получено %d", streamer.Len())
	}
	if err := streamer.Seek(8000); err != nil {
		t.Errorf("Перемотка потока из памяти: %v", err)
	}
}

func TestDecodeUnknownAsMP3(t *testing.T) {
	src := &closeTracker{Reader: strings.NewReader("definitely not audio")}

	if _, _, err := Decode(src); err == nil {
		t.Fatal("Ожидалась ошибка декодирования")
	} else if !strings.Contains(err.Error(), "mp3") {
		t.Errorf("Неопознанные данные должны декодироваться как MP3: %v", err)
	}
}

func TestDecodeBrokenWAV(t *testing.T) {
	data := pcmWAV(8000, time.Second)[:20]

	if _, _, err := Decode(memory{bytes.NewReader(data)}); err == nil {
		t.Error("Ожидалась ошибка для обрезанного WAV")
	}
}

package synthesize

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Audio constants for generated fallback clips
const (
	SampleRate    = 16000
	toneFrequency = 440.0
	toneAmplitude = 12000
	toneDuration  = 1000 // ms
)

// EncodeWAV wraps 16-bit mono PCM samples in a RIFF/WAVE container
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))           // chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))            // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))            // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))   // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

// ToneWAV generates the deterministic fallback clip: one second of a 440Hz
// sine tone as 16kHz mono 16-bit PCM.
func ToneWAV() []byte {
	n := SampleRate * toneDuration / 1000
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(toneAmplitude * math.Sin(2*math.Pi*toneFrequency*float64(i)/SampleRate))
	}
	return EncodeWAV(samples, SampleRate)
}

// SilentWAV generates durationMs of silence as 16kHz mono 16-bit PCM
func SilentWAV(durationMs int) []byte {
	n := SampleRate * durationMs / 1000
	return EncodeWAV(make([]int16, n), SampleRate)
}

// IsWAV reports whether data carries the RIFF/WAVE magic bytes
func IsWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

// DecodePCM extracts the 16-bit samples and sample rate from a simple WAV
// file produced by EncodeWAV. Used by tests to verify generated audio.
func DecodePCM(data []byte) (samples []int16, sampleRate int, ok bool) {
	if !IsWAV(data) || len(data) < 44 {
		return nil, 0, false
	}
	sampleRate = int(binary.LittleEndian.Uint32(data[24:28]))

	// Locate the data chunk after the fmt chunk
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		if id == "data" {
			body := data[offset+8:]
			if size > len(body) {
				size = len(body)
			}
			samples = make([]int16, size/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(body[i*2 : i*2+2]))
			}
			return samples, sampleRate, true
		}
		offset += 8 + size
	}
	return nil, 0, false
}

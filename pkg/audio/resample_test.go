package audio

import (
	"testing"
)

func TestResample_SameRate(t *testing.T) {
	samples := []int16{100, 200, 300, 400, 500}
	result := Resample(samples, 24000, 24000)

	if len(result) != len(samples) {
		t.Errorf("Expected %d samples, got %d", len(samples), len(result))
	}

	for i, s := range samples {
		if result[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, result[i])
		}
	}
}

func TestResample_Downsample(t *testing.T) {
	// 48kHz -> 16kHz (3:1 ratio), the WebRTC ingress path
	samples := make([]int16, 960) // 20ms at 48kHz
	for i := range samples {
		samples[i] = int16(i)
	}

	result := Resample(samples, 48000, 16000)

	expectedLen := 320
	if len(result) != expectedLen {
		t.Errorf("Expected %d samples, got %d", expectedLen, len(result))
	}
}

func TestResample_Upsample(t *testing.T) {
	// 16kHz -> 24kHz (2:3 ratio)
	samples := make([]int16, 320) // 20ms at 16kHz
	for i := range samples {
		samples[i] = int16(i * 100)
	}

	result := Resample(samples, 16000, 24000)

	expectedLen := 480
	if len(result) != expectedLen {
		t.Errorf("Expected %d samples, got %d", expectedLen, len(result))
	}
}

func TestResample_Empty(t *testing.T) {
	result := Resample(nil, 24000, 48000)
	if len(result) != 0 {
		t.Errorf("Expected empty result for nil input")
	}
}

func TestBytesSamplesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	data := SamplesToBytes(samples)
	back := BytesToSamples(data)

	if len(back) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(back))
	}
	for i, s := range samples {
		if back[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, back[i])
		}
	}
}

func TestStereoToMono(t *testing.T) {
	stereo := []int16{100, 200, -100, -200}
	mono := StereoToMono(stereo)

	if len(mono) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(mono))
	}
	if mono[0] != 150 {
		t.Errorf("Expected 150, got %d", mono[0])
	}
	if mono[1] != -150 {
		t.Errorf("Expected -150, got %d", mono[1])
	}
}

func TestChunkDuration(t *testing.T) {
	tests := []struct {
		name     string
		samples  int
		rate     int
		channels int
		want     string
	}{
		{"one second at 24k", 24000, 24000, 1, "1s"},
		{"capture block", 4096, 16000, 1, "256ms"},
		{"stereo halves frames", 48000, 24000, 2, "1s"},
		{"zero rate", 100, 0, 1, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Chunk{
				Samples:    make([]int16, tt.samples),
				SampleRate: tt.rate,
				Channels:   tt.channels,
			}
			if got := c.Duration().String(); got != tt.want {
				t.Errorf("Duration() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChunkBytesRoundTrip(t *testing.T) {
	c := Chunk{Samples: []int16{1, -2, 300, -400}, SampleRate: 16000, Channels: 1}
	data := c.Bytes()

	var back Chunk
	back.FromBytes(data, 16000, 1)

	if len(back.Samples) != len(c.Samples) {
		t.Fatalf("Expected %d samples, got %d", len(c.Samples), len(back.Samples))
	}
	for i := range c.Samples {
		if back.Samples[i] != c.Samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, c.Samples[i], back.Samples[i])
		}
	}
}

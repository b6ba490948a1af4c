package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Tone describes a sine burst written by WriteToneWAV. A zero frequency
// writes silence for the duration.
type Tone struct {
	FrequencyHz float64
	Seconds     float64
}

// WriteToneWAV writes a mono 16-bit PCM WAV file made of consecutive tones.
func WriteToneWAV(t testing.TB, path string, sampleRate int, tones ...Tone) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	var samples []int
	for _, tone := range tones {
		n := int(tone.Seconds * float64(sampleRate))
		for i := 0; i < n; i++ {
			if tone.FrequencyHz <= 0 {
				samples = append(samples, 0)
				continue
			}
			v := 0.5 * math.Sin(2*math.Pi*tone.FrequencyHz*float64(i)/float64(sampleRate))
			samples = append(samples, int(v*math.MaxInt16))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav %s: %v", path, err)
	}
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Package wavio reads and writes the WAV files used for body impulse
// responses and offline renders.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadStereo decodes path into left and right channels. Mono files return the
// same samples for both; extra channels are ignored.
func ReadStereo(path string) ([]float32, []float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	if frames == 0 {
		return nil, nil, 0, fmt.Errorf("empty wav data: %s", path)
	}
	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := range frames {
		left[i] = buf.Data[i*ch]
		if ch > 1 {
			right[i] = buf.Data[i*ch+1]
		} else {
			right[i] = left[i]
		}
	}
	return left, right, buf.Format.SampleRate, nil
}

// ReadMono decodes path and averages its channels.
func ReadMono(path string) ([]float32, int, error) {
	left, right, rate, err := ReadStereo(path)
	if err != nil {
		return nil, 0, err
	}
	for i := range left {
		left[i] = 0.5 * (left[i] + right[i])
	}
	return left, rate, nil
}

// WriteStereo writes interleaved stereo samples as 16-bit PCM, creating the
// parent directory when needed.
func WriteStereo(path string, samples []float32, sampleRate int) error {
	return write(path, samples, sampleRate, 2)
}

// WriteMono writes mono samples as 16-bit PCM.
func WriteMono(path string, samples []float32, sampleRate int) error {
	return write(path, samples, sampleRate, 1)
}

func write(path string, samples []float32, sampleRate, channels int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

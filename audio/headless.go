//go:build headless

package audio

import "log/slog"

// Open returns a Null sink: headless builds have no audio device.
func Open(src Source, sampleRate int, logger *slog.Logger) (Output, error) {
	return NewNull(src, sampleRate, logger), nil
}

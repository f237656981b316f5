//go:build !headless && !portaudio

package audio

import (
	"log/slog"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/theremotion/internal/logging"
)

type otoOutput struct {
	ctx    *oto.Context
	player *oto.Player
	log    *slog.Logger
	rate   int
}

// Open opens the default device at sampleRate, pulling audio from src.
func Open(src Source, sampleRate int, logger *slog.Logger) (Output, error) {
	const bufferSize = 20 * time.Millisecond
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("oto context", "Cannot open the audio device"))
	}
	<-ready
	return &otoOutput{
		ctx:    ctx,
		player: ctx.NewPlayer(NewReader(src, readerFrames(sampleRate, bufferSize))),
		log:    logging.OrDefault(logger),
		rate:   sampleRate,
	}, nil
}

func (o *otoOutput) Start() error {
	o.player.Play()
	o.log.Info("audio output", "backend", "oto", "rate", o.rate)
	return nil
}

func (o *otoOutput) Close() error {
	return o.player.Close()
}

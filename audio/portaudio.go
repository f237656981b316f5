//go:build portaudio && !headless

package audio

import (
	"log/slog"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	pa "github.com/gordonklaus/portaudio"

	"github.com/cwbudde/theremotion/internal/logging"
)

const framesPerBuffer = 256

type paOutput struct {
	src    Source
	stream *pa.Stream
	out    []float32
	log    *slog.Logger
	rate   int

	stop chan struct{}
	wg   sync.WaitGroup
}

// Open opens the default device at sampleRate, pushing audio from src.
func Open(src Source, sampleRate int, logger *slog.Logger) (Output, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("portaudio init", "Cannot open the audio device"))
	}
	o := &paOutput{
		src:  src,
		out:  make([]float32, framesPerBuffer*Channels),
		log:  logging.OrDefault(logger),
		rate: sampleRate,
		stop: make(chan struct{}),
	}
	stream, err := pa.OpenDefaultStream(0, Channels, float64(sampleRate), framesPerBuffer, &o.out)
	if err != nil {
		_ = pa.Terminate()
		return nil, fault.Wrap(err, fmsg.WithDesc("portaudio stream", "Cannot open the audio device"))
	}
	o.stream = stream
	return o, nil
}

func (o *paOutput) Start() error {
	if err := o.stream.Start(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("portaudio start", "Cannot start audio playback"))
	}
	o.wg.Add(1)
	go o.run()
	o.log.Info("audio output", "backend", "portaudio", "rate", o.rate)
	return nil
}

func (o *paOutput) run() {
	defer o.wg.Done()
	for {
		select {
		case <-o.stop:
			return
		default:
		}
		o.src.ProcessTo(o.out)
		if err := o.stream.Write(); err != nil {
			// Underflows are reported but not fatal.
			o.log.Debug("portaudio write", "err", err)
		}
	}
}

func (o *paOutput) Close() error {
	close(o.stop)
	o.wg.Wait()
	err := o.stream.Stop()
	if cerr := o.stream.Close(); err == nil {
		err = cerr
	}
	if terr := pa.Terminate(); err == nil {
		err = terr
	}
	return err
}

// Package audio plays the instrument on the default output device. The
// backend is chosen at build time: oto by default, portaudio with the
// portaudio tag, and a silent clocked sink with the headless tag.
package audio

import (
	"encoding/binary"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/theremotion/internal/logging"
)

// Channels is the interleaved channel count of every backend.
const Channels = 2

// Source renders interleaved stereo frames into dst.
type Source interface {
	ProcessTo(dst []float32)
}

// Output is a running device.
type Output interface {
	Start() error
	Close() error
}

// Reader pulls frames from a Source as little-endian float32 bytes.
type Reader struct {
	src Source
	buf []float32
}

// NewReader wraps src with room for frames per Read. Larger reads grow the
// buffer once.
func NewReader(src Source, frames int) *Reader {
	return &Reader{src: src, buf: make([]float32, max(frames, 0)*Channels)}
}

// readerFrames sizes a Reader for a device buffer of d. The player may pull
// a few buffers at once, so it leaves room for four.
func readerFrames(sampleRate int, d time.Duration) int {
	return 4 * int(int64(sampleRate)*int64(d)/int64(time.Second))
}

// Read fills whole frames of p. It never fails; fewer than one frame of
// room reads nothing.
func (r *Reader) Read(p []byte) (int, error) {
	const frameBytes = 4 * Channels
	n := len(p) / frameBytes * frameBytes
	samples := n / 4
	if samples == 0 {
		return 0, nil
	}
	if cap(r.buf) < samples {
		r.buf = make([]float32, samples)
	}
	buf := r.buf[:samples]
	r.src.ProcessTo(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return n, nil
}

// Null renders the source in real time and discards the audio. It keeps the
// instrument running where no device exists.
type Null struct {
	src      Source
	interval time.Duration
	frames   int
	log      *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewNull builds a sink pulling sampleRate frames per second in 10ms chunks.
func NewNull(src Source, sampleRate int, logger *slog.Logger) *Null {
	return &Null{
		src:      src,
		interval: 10 * time.Millisecond,
		frames:   sampleRate / 100,
		log:      logging.OrDefault(logger),
	}
}

func (n *Null) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stop != nil {
		return nil
	}
	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	go n.run(n.stop, n.done)
	n.log.Info("audio output", "backend", "null")
	return nil
}

func (n *Null) run(stop, done chan struct{}) {
	defer close(done)
	buf := make([]float32, n.frames*Channels)
	tick := time.NewTicker(n.interval)
	defer tick.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			n.src.ProcessTo(buf)
		}
	}
}

func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stop == nil {
		return nil
	}
	close(n.stop)
	<-n.done
	n.stop = nil
	return nil
}

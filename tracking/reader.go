package tracking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/cwbudde/theremotion/conductor"
	"github.com/cwbudde/theremotion/internal/logging"
	"github.com/cwbudde/theremotion/internal/queue"
	"github.com/cwbudde/theremotion/settings"
)

const (
	DefaultPollTimeout = 100 * time.Millisecond
	DefaultRetryDelay  = time.Second
)

// errStopped ends the reader after a failed send.
var errStopped = errors.New("conductor gone")

// Reader polls a device and forwards hand poses to the conductor.
type Reader struct {
	Device Device
	// Settings carries settings updates; only the latest pending one is used.
	Settings *queue.Unbounded[settings.Settings]
	Out      queue.Sender[conductor.Message]
	// Recorder, when set, receives every polled event.
	Recorder *Recorder

	PollTimeout time.Duration
	RetryDelay  time.Duration
	Logger      *slog.Logger

	settings settings.Settings
}

// Run connects and polls until a send to Out fails, ctx is done or the
// device is exhausted. Connection and poll errors are reported to the
// conductor and never end the loop.
func (r *Reader) Run(ctx context.Context) error {
	log := logging.OrDefault(r.Logger)
	if r.PollTimeout <= 0 {
		r.PollTimeout = DefaultPollTimeout
	}
	if r.RetryDelay <= 0 {
		r.RetryDelay = DefaultRetryDelay
	}
	r.settings = settings.Default()

	for {
		conn, err := r.connect(ctx, log)
		if err != nil {
			return nil
		}
		err = r.poll(ctx, conn)
		if cerr := conn.Close(); cerr != nil {
			log.Debug("close tracking connection", "err", cerr)
		}
		switch {
		case errors.Is(err, ErrDisconnected):
			log.Warn("tracking device disconnected, reconnecting")
		case errors.Is(err, ErrExhausted):
			log.Info("tracking source exhausted")
			return nil
		default:
			return nil
		}
	}
}

func (r *Reader) connect(ctx context.Context, log *slog.Logger) (Connection, error) {
	for {
		conn, err := r.Device.Connect()
		if err == nil {
			log.Info("tracking device connected")
			return conn, nil
		}
		log.Warn("connect tracking device", "err", err)
		status := fault.Wrap(err, fmsg.WithDesc("connect tracking device", "Cannot connect to the tracking device"))
		if r.send(conductor.TrackingStatus{Err: status}) != nil {
			return nil, errStopped
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.RetryDelay):
		}
	}
}

// poll runs iterations until the connection or the conductor goes away.
func (r *Reader) poll(ctx context.Context, conn Connection) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.step(conn); err != nil {
			return err
		}
	}
}

// step is one iteration: pick up the latest settings, poll once and forward
// the result.
func (r *Reader) step(conn Connection) error {
	if r.Settings != nil {
		if s, ok := r.Settings.TryLatest(); ok {
			r.settings = s
		}
	}

	ev, err := conn.Poll(r.PollTimeout)
	if err != nil {
		if errors.Is(err, ErrExhausted) {
			return err
		}
		status := fault.Wrap(err, fmsg.WithDesc("poll tracking device", "Tracking device is not responding"))
		if r.send(conductor.TrackingStatus{Err: status}) != nil {
			return errStopped
		}
		if errors.Is(err, ErrDisconnected) {
			return err
		}
		return nil
	}

	if r.Recorder != nil {
		if err := r.Recorder.Record(ev); err != nil {
			logging.OrDefault(r.Logger).Warn("record tracking event", "err", err)
		}
	}
	if ev.Kind == EventTracking {
		if err := r.forward(ev); err != nil {
			return errStopped
		}
	}
	if r.send(conductor.TrackingStatus{}) != nil {
		return errStopped
	}
	return nil
}

func (r *Reader) forward(ev Event) error {
	for _, m := range Messages(ev, r.settings.System.Handedness) {
		if err := r.send(m); err != nil {
			return err
		}
	}
	return nil
}

// Messages converts a tracking event into the conductor messages preceding
// its status: the visible hands, then the pitch and volume hands present.
func Messages(ev Event, handedness settings.Handedness) []conductor.Message {
	msgs := []conductor.Message{conductor.VisibleHands{Left: ev.Has(Left), Right: ev.Has(Right)}}
	if h, ok := ev.Find(PitchHandType(handedness)); ok {
		msgs = append(msgs, conductor.PitchHand{HandMessage: h.Message()})
	}
	if h, ok := ev.Find(VolumeHandType(handedness)); ok {
		msgs = append(msgs, conductor.VolumeHand{HandMessage: h.Message()})
	}
	return msgs
}

func (r *Reader) send(m conductor.Message) error {
	return r.Out.Send(m)
}

// PitchHandType is the hand playing the pitch.
func PitchHandType(h settings.Handedness) HandType {
	if h == settings.LeftHanded {
		return Left
	}
	return Right
}

// VolumeHandType is the hand playing volume and articulation.
func VolumeHandType(h settings.Handedness) HandType {
	if h == settings.LeftHanded {
		return Right
	}
	return Left
}

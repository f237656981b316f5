package tracking

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
)

const recordingVersion = 1

// RecordingHeader is the first line of a recording.
type RecordingHeader struct {
	Version int       `json:"version"`
	Session uuid.UUID `json:"session"`
	Started time.Time `json:"started"`
}

// Frame is one recorded event, T seconds after the recording started.
type Frame struct {
	T     float64 `json:"t"`
	Event Event   `json:"event"`
}

// Recording is a decoded session.
type Recording struct {
	Header RecordingHeader
	Frames []Frame
}

// Duration is the time of the last frame.
func (r *Recording) Duration() time.Duration {
	if len(r.Frames) == 0 {
		return 0
	}
	return time.Duration(math.Round(r.Frames[len(r.Frames)-1].T * float64(time.Second)))
}

// Recorder writes polled events as JSON lines.
type Recorder struct {
	enc    *json.Encoder
	header RecordingHeader
	now    func() time.Time
}

// NewRecorder starts a session on w and writes its header.
func NewRecorder(w io.Writer) (*Recorder, error) {
	return newRecorder(w, time.Now)
}

func newRecorder(w io.Writer, now func() time.Time) (*Recorder, error) {
	r := &Recorder{
		enc: json.NewEncoder(w),
		header: RecordingHeader{
			Version: recordingVersion,
			Session: uuid.New(),
			Started: now().UTC(),
		},
		now: now,
	}
	if err := r.enc.Encode(r.header); err != nil {
		return nil, err
	}
	return r, nil
}

// Session identifies the recording.
func (r *Recorder) Session() uuid.UUID {
	return r.header.Session
}

// Record appends ev.
func (r *Recorder) Record(ev Event) error {
	t := r.now().Sub(r.header.Started).Seconds()
	return r.enc.Encode(Frame{T: t, Event: ev})
}

// ReadRecording decodes a recording.
func ReadRecording(rd io.Reader) (*Recording, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("empty recording")
	}
	rec := &Recording{}
	if err := json.Unmarshal(sc.Bytes(), &rec.Header); err != nil {
		return nil, fmt.Errorf("recording header: %w", err)
	}
	if rec.Header.Version != recordingVersion {
		return nil, fmt.Errorf("unsupported recording version %d", rec.Header.Version)
	}
	line := 1
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			return nil, fmt.Errorf("recording line %d: %w", line, err)
		}
		rec.Frames = append(rec.Frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// LoadRecording reads the recording at path.
func LoadRecording(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecording(f)
}

// Replay is a device playing back a recording.
type Replay struct {
	Recording *Recording
	// Realtime paces frames by their timestamps; otherwise Poll returns the
	// next frame immediately.
	Realtime bool
	// Loop restarts at the end instead of reporting ErrExhausted.
	Loop bool
}

// Connect starts playback from the first frame.
func (r *Replay) Connect() (Connection, error) {
	if r.Recording == nil || len(r.Recording.Frames) == 0 {
		return nil, errors.New("recording has no frames")
	}
	return &replayConn{replay: r, start: time.Now()}, nil
}

type replayConn struct {
	replay *Replay
	next   int
	start  time.Time
}

func (c *replayConn) Poll(timeout time.Duration) (Event, error) {
	frames := c.replay.Recording.Frames
	if c.next >= len(frames) {
		if !c.replay.Loop {
			return Event{}, ErrExhausted
		}
		c.next = 0
		c.start = time.Now()
	}
	f := frames[c.next]
	if c.replay.Realtime {
		offset := time.Duration((f.T - frames[0].T) * float64(time.Second))
		wait := time.Until(c.start.Add(offset))
		if wait > timeout {
			time.Sleep(timeout)
			return Event{}, ErrTimeout
		}
		if wait > 0 {
			time.Sleep(wait)
		}
	}
	c.next++
	return f.Event, nil
}

func (c *replayConn) Close() error {
	return nil
}

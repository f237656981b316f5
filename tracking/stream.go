package tracking

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

type streamItem struct {
	ev  Event
	err error
}

// stream is a connection decoding one JSON event per line.
type stream struct {
	rc    io.ReadCloser
	items chan streamItem
	done  chan struct{}
	once  sync.Once
}

// NewStream returns a connection reading JSON-lines events from rc. The end
// of the stream reads as ErrDisconnected.
func NewStream(rc io.ReadCloser) Connection {
	s := &stream{
		rc:    rc,
		items: make(chan streamItem),
		done:  make(chan struct{}),
	}
	go s.read()
	return s
}

func (s *stream) read() {
	sc := bufio.NewScanner(s.rc)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var item streamItem
		if err := json.Unmarshal(b, &item.ev); err != nil {
			item.err = fmt.Errorf("line %d: %w", line, err)
		}
		if !s.deliver(item) {
			return
		}
	}
	err := ErrDisconnected
	if serr := sc.Err(); serr != nil {
		err = fmt.Errorf("%w: %v", ErrDisconnected, serr)
	}
	for s.deliver(streamItem{err: err}) {
	}
}

func (s *stream) deliver(item streamItem) bool {
	select {
	case s.items <- item:
		return true
	case <-s.done:
		return false
	}
}

func (s *stream) Poll(timeout time.Duration) (Event, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case item := <-s.items:
		return item.ev, item.err
	case <-t.C:
		return Event{}, ErrTimeout
	case <-s.done:
		return Event{}, ErrDisconnected
	}
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.rc.Close()
	})
	return err
}

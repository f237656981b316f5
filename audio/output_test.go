package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

// ramp writes 0, 1, 2, ... continuing across calls.
type ramp struct {
	next  float32
	calls atomic.Int64
}

func (r *ramp) ProcessTo(dst []float32) {
	r.calls.Add(1)
	for i := range dst {
		dst[i] = r.next
		r.next++
	}
}

func TestReaderEncodesWholeFrames(t *testing.T) {
	src := &ramp{}
	r := NewReader(src, 0)

	p := make([]byte, 8*3+5)
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 24 {
		t.Fatalf("read %d bytes, want 24", n)
	}
	for i := range 6 {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
		if got != float32(i) {
			t.Fatalf("sample %d = %v", i, got)
		}
	}

	n, _ = r.Read(p[:8])
	if n != 8 || math.Float32frombits(binary.LittleEndian.Uint32(p)) != 6 {
		t.Fatalf("second read did not continue the stream")
	}
}

func TestReaderNeedsOneFrame(t *testing.T) {
	src := &ramp{}
	n, err := NewReader(src, 0).Read(make([]byte, 7))
	if n != 0 || err != nil {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if src.calls.Load() != 0 {
		t.Fatal("source rendered for a partial frame")
	}
}

func TestReaderDoesNotAllocate(t *testing.T) {
	frames := readerFrames(48000, 20*time.Millisecond)
	if frames != 3840 {
		t.Fatalf("frames = %d, want 3840", frames)
	}
	r := NewReader(&ramp{}, frames)
	p := make([]byte, 4*Channels*frames)
	allocs := testing.AllocsPerRun(20, func() {
		if n, _ := r.Read(p); n != len(p) {
			t.Fatalf("read %d of %d bytes", n, len(p))
		}
	})
	if allocs != 0 {
		t.Fatalf("Read allocates %.1f times per call", allocs)
	}
}

func TestNullPullsUntilClosed(t *testing.T) {
	src := &ramp{}
	n := NewNull(src, 48000, nil)
	if err := n.Start(); err != nil {
		t.Fatal(err)
	}
	if err := n.Start(); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("null sink did not pull audio")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := n.Close(); err != nil {
		t.Fatal(err)
	}
	calls := src.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if src.calls.Load() != calls {
		t.Fatal("null sink kept pulling after Close")
	}
	if err := n.Close(); err != nil {
		t.Fatal(err)
	}
}

package synth

import (
	"fmt"
	"math"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/cwbudde/theremotion/internal/wavio"
)

// BodyConvolver colors the string bus with an instrument body impulse
// response using partitioned convolution (mono in, stereo out).
type BodyConvolver struct {
	sampleRate int
	partSize   int

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	block    []float32
	leftOut  []float32
	rightOut []float32
}

// NewBodyConvolver creates a pass-through convolver.
func NewBodyConvolver(sampleRate int) *BodyConvolver {
	c := &BodyConvolver{
		sampleRate: sampleRate,
		partSize:   128,
	}
	c.block = make([]float32, c.partSize)
	c.leftOut = make([]float32, c.partSize)
	c.rightOut = make([]float32, c.partSize)
	c.SetIR([]float32{1.0}, []float32{1.0})
	return c
}

// PartSize is the block size ProcessTo expects.
func (c *BodyConvolver) PartSize() int {
	return c.partSize
}

// ProcessTo convolves one block of at most PartSize mono samples and adds the
// stereo result to the interleaved dst. No allocation.
func (c *BodyConvolver) ProcessTo(dst []float32, input []float32) {
	n := len(input)
	if n > c.partSize {
		n = c.partSize
	}
	copy(c.block, input[:n])
	for i := n; i < c.partSize; i++ {
		c.block[i] = 0
	}

	errL := c.leftOLA.ProcessBlockTo(c.leftOut, c.block)
	errR := c.rightOLA.ProcessBlockTo(c.rightOut, c.block)
	if errL != nil || errR != nil {
		for i := range n {
			dst[i*2] += input[i]
			dst[i*2+1] += input[i]
		}
		return
	}
	for i := range n {
		dst[i*2] += c.leftOut[i]
		dst[i*2+1] += c.rightOut[i]
	}
}

// SetIR configures left/right impulse responses.
func (c *BodyConvolver) SetIR(leftIR []float32, rightIR []float32) {
	if len(leftIR) == 0 {
		leftIR = []float32{1.0}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1.0}
	}

	leftOLA, errL := dspconv.NewStreamingOverlapAdd32(leftIR, c.partSize)
	rightOLA, errR := dspconv.NewStreamingOverlapAdd32(rightIR, c.partSize)
	if errL != nil || errR != nil {
		return
	}
	c.leftOLA = leftOLA
	c.rightOLA = rightOLA
	c.Reset()
}

// SetIRFromWAV loads a mono/stereo IR from WAV, resampled to the engine rate
// and normalized to unit peak.
func (c *BodyConvolver) SetIRFromWAV(path string) error {
	left, right, rate, err := wavio.ReadStereo(path)
	if err != nil {
		return err
	}
	if rate <= 0 {
		return fmt.Errorf("invalid wav sample-rate: %d", rate)
	}
	left, err = c.resampleIfNeeded(left, rate)
	if err != nil {
		return err
	}
	right, err = c.resampleIfNeeded(right, rate)
	if err != nil {
		return err
	}
	normalizePeak(left, right)
	c.SetIR(left, right)
	return nil
}

// Reset clears convolver history and overlap buffers.
func (c *BodyConvolver) Reset() {
	if c.leftOLA != nil {
		c.leftOLA.Reset()
	}
	if c.rightOLA != nil {
		c.rightOLA.Reset()
	}
}

func (c *BodyConvolver) resampleIfNeeded(in []float32, inRate int) ([]float32, error) {
	if inRate == c.sampleRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(inRate),
		float64(c.sampleRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}

	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

func normalizePeak(channels ...[]float32) {
	var peak float64
	for _, ch := range channels {
		for _, v := range ch {
			peak = math.Max(peak, math.Abs(float64(v)))
		}
	}
	if peak == 0 {
		return
	}
	scale := float32(1 / peak)
	for _, ch := range channels {
		for i := range ch {
			ch[i] *= scale
		}
	}
}

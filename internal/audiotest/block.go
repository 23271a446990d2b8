package audiotest

import (
	"math"

	"github.com/yok-tottii/performia-monitor/internal/audio"
)

// NewBlock allocates a silent block with the given channel counts
func NewBlock(inputs, outputs, frames int) audio.Block {
	block := audio.Block{
		In:  make([][]float32, inputs),
		Out: make([][]float32, outputs),
	}
	for i := range block.In {
		block.In[i] = make([]float32, frames)
	}
	for i := range block.Out {
		block.Out[i] = make([]float32, frames)
	}
	return block
}

// Fill sets every sample of a channel to value
func Fill(ch []float32, value float32) {
	for i := range ch {
		ch[i] = value
	}
}

// FillSine writes a sine wave starting at sample offset
func FillSine(ch []float32, amplitude float32, frequency, sampleRate float64, offset int) {
	for i := range ch {
		t := float64(offset+i) / sampleRate
		ch[i] = amplitude * float32(math.Sin(2*math.Pi*frequency*t))
	}
}

// Peak returns the largest absolute sample of a channel
func Peak(ch []float32) float32 {
	var peak float32
	for _, s := range ch {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

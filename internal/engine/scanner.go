package engine

// SilenceThreshold is the peak below which a channel counts as silent
const SilenceThreshold float32 = 0.0001

// ScanResult is the outcome of scanning one block
type ScanResult struct {
	// Channel is the physical channel carrying the signal, or NoChannel
	Channel int
	// Peak is the absolute peak of that channel, or the loudest seen
	// when every channel is below the threshold
	Peak float32
	// Fallback is set when the signal came from a channel other than
	// the preferred one
	Fallback bool
}

// Scanner finds the input channel carrying signal. It prefers the selected
// channel and scans the others only when that one is silent, so a quiet
// selected instrument never loses to a louder neighbour.
type Scanner struct {
	Threshold float32
}

// NewScanner returns a scanner using SilenceThreshold
func NewScanner() Scanner {
	return Scanner{Threshold: SilenceThreshold}
}

// Scan inspects the block's inputs. active must be in ascending order; the
// first channel reaching the maximum wins ties. Channels missing from the
// block are skipped.
func (s Scanner) Scan(in [][]float32, preferred int, active []int) ScanResult {
	if peak, ok := channelPeak(in, preferred); ok && peak >= s.Threshold {
		return ScanResult{Channel: preferred, Peak: peak}
	}

	best := NoChannel
	var bestPeak float32
	for _, ch := range active {
		peak, ok := channelPeak(in, ch)
		if !ok {
			continue
		}
		if best == NoChannel || peak > bestPeak {
			best, bestPeak = ch, peak
		}
	}

	if best == NoChannel || bestPeak < s.Threshold {
		return ScanResult{Channel: NoChannel, Peak: bestPeak}
	}

	return ScanResult{Channel: best, Peak: bestPeak, Fallback: best != preferred}
}

func channelPeak(in [][]float32, ch int) (float32, bool) {
	if ch < 0 || ch >= len(in) || in[ch] == nil {
		return 0, false
	}
	return peakOf(in[ch]), true
}

func peakOf(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// Package smoothing cleans noisy per-frame detection scores into stable
// event intervals. The model emits one score per 20 ms frame per label;
// near event boundaries these flicker across the detection threshold, so
// raw binarized output is full of one-frame holes and one-frame spikes.
// Smoothing runs two passes over the run-length decomposition of the
// binarized series: short interior gaps are filled, then short positive
// spikes are removed when the series carries enough total positive mass.
package smoothing

// Params controls the smoother. All frame counts are in model frames
// (50 Hz, 20 ms per frame, at the default model resolution).
type Params struct {
	// Threshold is the binarization cutoff: a frame is positive when its
	// raw score is >= Threshold.
	Threshold float64 `json:"threshold" mapstructure:"threshold"`

	// MinGapFrames: an interior run of negative frames strictly shorter
	// than this is filled.
	MinGapFrames int `json:"min_gap_frames" mapstructure:"min_gap_frames"`

	// MinSpikeFrames: a positive run strictly shorter than this is
	// removed, subject to the MinEventFrames gate.
	MinSpikeFrames int `json:"min_spike_frames" mapstructure:"min_spike_frames"`

	// MinEventFrames: spike removal only runs when the total positive
	// frame count after gap filling is strictly greater than this.
	MinEventFrames int `json:"min_event_frames" mapstructure:"min_event_frames"`
}

// DefaultParams returns the production smoothing parameters: threshold
// 0.5, 200 ms gap fill, 40 ms spike removal, 200 ms event mass gate.
func DefaultParams() Params {
	return Params{
		Threshold:      0.5,
		MinGapFrames:   10,
		MinSpikeFrames: 2,
		MinEventFrames: 10,
	}
}

// run is a maximal stretch of identical binary frames, [start, end).
type run struct {
	start    int
	end      int
	positive bool
}

func (r run) length() int {
	return r.end - r.start
}

// Smooth relabels one label's raw frame scores. The result has the same
// length and frame alignment as scores. Frames positive after both
// passes are emitted as max(score, threshold); rejected frames are
// emitted as min(score, threshold/2). Smooth is pure: it never modifies
// scores and holds no state between calls.
func Smooth(scores []float64, p Params) []float64 {
	if len(scores) == 0 {
		return []float64{}
	}

	binary := make([]bool, len(scores))
	for i, score := range scores {
		binary[i] = score >= p.Threshold
	}

	// Pass 1: fill interior gaps. Segment boundaries come from the
	// original binarization only; fills applied here must not create new
	// fill candidates within the same call.
	runs := decompose(binary)
	for _, r := range runs {
		if r.positive {
			continue
		}
		// A gap at either edge of the series has no positive neighbor on
		// one side and is never filled.
		if r.start == 0 || r.end == len(binary) {
			continue
		}
		if r.length() < p.MinGapFrames {
			fill(binary, r, true)
		}
	}

	// Pass 2: remove short positive runs, gated on the total positive
	// mass so that a series of nothing but brief legitimate detections
	// is left alone.
	runs = decompose(binary)
	totalPositive := 0
	for _, r := range runs {
		if r.positive {
			totalPositive += r.length()
		}
	}
	if totalPositive > p.MinEventFrames {
		for _, r := range runs {
			if r.positive && r.length() < p.MinSpikeFrames {
				fill(binary, r, false)
			}
		}
	}

	smoothed := make([]float64, len(scores))
	for i, score := range scores {
		if binary[i] {
			smoothed[i] = max(score, p.Threshold)
		} else {
			smoothed[i] = min(score, p.Threshold*0.5)
		}
	}

	return smoothed
}

// SmoothAll applies Smooth independently to each label's series.
func SmoothAll(scores map[string][]float64, p Params) map[string][]float64 {
	smoothed := make(map[string][]float64, len(scores))
	for label, series := range scores {
		smoothed[label] = Smooth(series, p)
	}
	return smoothed
}

// decompose scans binary into its maximal constant runs, in order.
func decompose(binary []bool) []run {
	var runs []run
	start := 0
	for i := 1; i <= len(binary); i++ {
		if i == len(binary) || binary[i] != binary[start] {
			runs = append(runs, run{start: start, end: i, positive: binary[start]})
			start = i
		}
	}
	return runs
}

func fill(binary []bool, r run, value bool) {
	for i := r.start; i < r.end; i++ {
		binary[i] = value
	}
}

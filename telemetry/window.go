package telemetry

const (
	DefaultWindowSize = 20
	DefaultMaxHistory = 500
)

// Window is a bounded history of samples with a moving average.
type Window struct {
	buf        []float64
	next       int
	n          int
	minSamples int
}

// NewWindow returns a window holding at most maxHistory samples. The average
// covers the whole history once minSamples have been added; before that it is
// the latest sample.
func NewWindow(minSamples, maxHistory int) *Window {
	if maxHistory < 1 {
		maxHistory = 1
	}
	if minSamples < 1 {
		minSamples = 1
	}
	return &Window{
		buf:        make([]float64, maxHistory),
		minSamples: minSamples,
	}
}

// Add appends v, dropping the oldest sample when full, and returns the new
// average.
func (w *Window) Add(v float64) float64 {
	w.buf[w.next] = v
	w.next = (w.next + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
	if w.n < w.minSamples {
		return v
	}
	return w.mean()
}

// Len is the number of buffered samples.
func (w *Window) Len() int {
	return w.n
}

func (w *Window) mean() float64 {
	var sum float64
	for i := 0; i < w.n; i++ {
		sum += w.buf[i]
	}
	return sum / float64(w.n)
}

package collector

// sampleRing is a fixed-capacity ring buffer for throughput samples.
// Once full, new samples overwrite the oldest ones.
type sampleRing struct {
	samples []float64
	next    int
	full    bool
}

func newSampleRing(capacity int) *sampleRing {
	if capacity < 1 {
		capacity = 1
	}
	return &sampleRing{samples: make([]float64, capacity)}
}

// Add records a sample, evicting the oldest one when at capacity
func (r *sampleRing) Add(v float64) {
	r.samples[r.next] = v
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// Len returns the number of samples currently held
func (r *sampleRing) Len() int {
	if r.full {
		return len(r.samples)
	}
	return r.next
}

// Average returns the mean of the held samples, or 0 when empty
func (r *sampleRing) Average() float64 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += r.samples[i]
	}
	return sum / float64(n)
}

// Min returns the smallest held sample, or 0 when empty
func (r *sampleRing) Min() float64 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	min := r.samples[0]
	for i := 1; i < n; i++ {
		if r.samples[i] < min {
			min = r.samples[i]
		}
	}
	return min
}

// Reset discards all samples
func (r *sampleRing) Reset() {
	r.next = 0
	r.full = false
}

package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Fit returns a copy of src with exactly n elements: shorter input is
// zero-padded, longer input is truncated.
func Fit(src []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, src)
	return out
}

// CloneMatrix deep-copies a channel × samples matrix.
func CloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

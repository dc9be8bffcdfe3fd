package embedding

// MeanPool averages per-token hidden states (row-major, seqLen x dim) over
// the positions where mask is non-zero.
func MeanPool(hidden []float32, mask []int64, dim int) []float32 {
	out := make([]float32, dim)
	sum := make([]float64, dim)

	var count float64
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, x := range row {
			sum[i] += float64(x)
		}
		count++
	}
	if count == 0 {
		return out
	}
	for i := range sum {
		out[i] = float32(sum[i] / count)
	}
	return out
}

// contentMask attends to and pools over all n content tokens.
func contentMask(n int) []int64 {
	mask := make([]int64, n)
	for i := range mask {
		mask[i] = 1
	}
	return mask
}

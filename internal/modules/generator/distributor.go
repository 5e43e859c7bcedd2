package generator

import "math/rand"

const (
	distributeSpread        = 10
	distributeMaxIterations = 10000
)

// ConstrainedSum returns count integers near total/count, each within [min, max],
// that add up to total.
//
// Values start as random draws within ±10 of the mean; the difference to total is then
// moved one unit at a time onto random slots that still have room. If the bounds are too
// tight to absorb it within the iteration budget, whatever is left lands on the last slot,
// which may then leave [min, max]. The exact sum wins over the bounds.
func ConstrainedSum(rng *rand.Rand, total, count, min, max int) []int {
	if count <= 0 {
		return []int{}
	}
	if min > max {
		min, max = max, min
	}

	mean := int(roundHalfUp(float64(total) / float64(count)))
	lo := mean - distributeSpread
	if lo < min {
		lo = min
	}
	hi := mean + distributeSpread
	if hi > max {
		hi = max
	}

	values := make([]int, count)
	sum := 0
	for i := range values {
		v := lo
		if hi >= lo {
			v = lo + rng.Intn(hi-lo+1)
		}
		values[i] = clampInt(v, min, max)
		sum += values[i]
	}

	diff := total - sum
	for iter := 0; diff != 0 && iter < distributeMaxIterations; iter++ {
		i := rng.Intn(count)
		switch {
		case diff > 0 && values[i] < max:
			values[i]++
			diff--
		case diff < 0 && values[i] > min:
			values[i]--
			diff++
		}
	}

	if diff != 0 {
		values[count-1] += diff
	}
	return values
}

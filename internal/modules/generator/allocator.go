package generator

import (
	"math"
	"math/rand"
)

const (
	// widenSpan is added to min when a caller passes min > max.
	widenSpan = 10

	varietyMinWidth   = 50
	varietySaturation = 0.8
	varietyStep       = 5

	varietyAttempts  = 30
	globalAttempts   = 100
	planOnlyAttempts = 50
)

// AllocateValue picks one integer in [min, max] that is not yet in the pool and,
// while possible, not in the avoid set. It never fails: when the range runs out of
// fresh values it degrades stage by stage and finally returns a plain random draw
// that may repeat an earlier value.
//
// Stages:
//  1. round values (multiples of 5), only for ranges wider than 50 that are less than 80% used
//  2. unique against pool and avoid set
//  3. unique against the pool only
//  4. any value in range
//
// The returned value is always added to the pool.
func AllocateValue(rng *rand.Rand, min, max int, pool *ValuePool, avoid *AvoidSet) int {
	if min > max {
		max = min + widenSpan
	}
	span := max - min + 1
	draw := func() int { return min + rng.Intn(span) }

	if max-min > varietyMinWidth && float64(pool.Len()) < float64(span)*varietySaturation {
		for i := 0; i < varietyAttempts; i++ {
			v := clampInt(roundToStep(draw(), varietyStep), min, max)
			if !pool.Has(v) && !avoid.Has(v) {
				pool.Add(v)
				return v
			}
		}
	}

	for i := 0; i < globalAttempts; i++ {
		v := draw()
		if !pool.Has(v) && !avoid.Has(v) {
			pool.Add(v)
			return v
		}
	}

	for i := 0; i < planOnlyAttempts; i++ {
		v := draw()
		if !pool.Has(v) {
			pool.Add(v)
			return v
		}
	}

	v := draw()
	pool.Add(v)
	return v
}

func roundToStep(v, step int) int {
	return int(roundHalfUp(float64(v)/float64(step))) * step
}

// roundHalfUp rounds .5 towards positive infinity, matching the dashboard's arithmetic.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package backoff computes retry delays. Strategies are stateless so a
// single instance can serve concurrent retry loops.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before retry number attempt (0-based).
type Strategy interface {
	Delay(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration
}

// Exponential doubles (or scales by multiplier) the delay each attempt,
// optionally adding uniform jitter, capped at max.
type Exponential struct{}

func (Exponential) Delay(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30 // keep the float math away from overflow
	}

	d := time.Duration(float64(initial) * pow(multiplier, attempt))
	if d < 0 || d > max {
		d = max
	}

	jitter = clamp(jitter)
	if jitter > 0 {
		extra := time.Duration(float64(d) * jitter * rand.Float64())
		if d+extra > max {
			d = max
		} else {
			d += extra
		}
	}
	return d
}

// Decorrelated implements AWS-style decorrelated jitter: a delay drawn
// uniformly from [initial, min(max, initial*3^attempt)]. It smooths tail
// latencies under contention compared to plain exponential jitter.
type Decorrelated struct{}

func (Decorrelated) Delay(attempt int, initial, max time.Duration, _, _ float64) time.Duration {
	if attempt <= 0 {
		return initial
	}
	if attempt > 10 {
		attempt = 10
	}

	base := float64(initial)
	upper := base * pow(3.0, attempt)
	if upper > float64(max) || upper < 0 {
		upper = float64(max)
	}
	if upper < base {
		upper = base
	}

	d := time.Duration(base + rand.Float64()*(upper-base))
	if d < 0 || d > max {
		d = max
	}
	return d
}

func clamp(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}

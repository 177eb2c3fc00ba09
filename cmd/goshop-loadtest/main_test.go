package main

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50: got %v", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100: got %v", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty: got %v", got)
	}
}

func TestRunPhaseCountsFailures(t *testing.T) {
	stats := runPhase(100, 4, func(_ *rand.Rand, op int) error {
		if op%10 == 0 {
			return errors.New("fail")
		}
		return nil
	})
	if stats.ops != 100 || stats.failures != 10 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

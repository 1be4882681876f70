// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package freqcount

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"periph.io/x/conn/v3/physic"
)

// ErrTimeout is returned by Average when the deadline expires before the
// requested number of samples arrived.
var ErrTimeout = errors.New("freqcount: deadline expired before enough samples")

// Average consumes fresh samples until n have been collected or the
// deadline expires, and returns the rounded mean frequency.
//
// The wait is a cooperative busy-poll rather than a blocking receive: the
// capture handler is the only other execution context and it must never
// block, so there is no event to sleep on. On timeout the accumulated
// partial window is discarded and ErrTimeout returned; callers treat that
// as "measurement unavailable".
func (c *Counter) Average(n int, deadline time.Duration) (physic.Frequency, error) {
	if n <= 0 {
		return 0, fmt.Errorf("freqcount: invalid sample count %d", n)
	}
	end := time.Now().Add(deadline)
	var sum uint64
	got := 0
	for got < n {
		if f, ok := c.TakeSample(); ok {
			sum += uint64(f / physic.Hertz)
			got++
			continue
		}
		if !time.Now().Before(end) {
			return 0, ErrTimeout
		}
		runtime.Gosched()
	}
	hz := (sum + uint64(n)/2) / uint64(n)
	return physic.Frequency(hz) * physic.Hertz, nil
}

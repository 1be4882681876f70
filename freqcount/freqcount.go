// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package freqcount measures the frequency of a digital signal with a
// hardware capture timer.
//
// A Counter attaches to the timer's capture and rollover interrupts and
// derives an instantaneous frequency from the count delta between two
// consecutive rising edges. Each new measurement is published together with
// a fresh-sample flag; Average consumes those samples under a wall-clock
// deadline and returns their mean.
//
// The counter can be paused between measurements to stop the timer and
// keep stale edges from accumulating.
package freqcount

import (
	"errors"
	"sync"
	"sync/atomic"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

// Timer abstracts a free-running hardware timer with input capture.
// Platform support packages provide implementations backed by the MCU's
// timer peripheral.
type Timer interface {
	// Start lets the counter run from its current value.
	Start() error
	// Stop halts the counter. No interrupts fire while stopped.
	Stop() error
	// Attach registers the handlers invoked from interrupt context on each
	// rising-edge capture and on each counter rollover.
	Attach(capture func(raw uint32), rollover func())
	// Detach unregisters the handlers installed by Attach.
	Detach()
	// Clock is the frequency the counter counts at.
	Clock() physic.Frequency
	// Modulus is the count at which the counter wraps back to zero.
	// Captured values are in [0, Modulus).
	Modulus() uint32
}

// fresh flags a published sample that has not been consumed yet.
const fresh = 1

// Counter derives a frequency estimate from capture interrupts.
//
// The capture and rollover handlers are the only writers of the
// measurement state; foreign code observes it through Frequency and
// TakeSample. All shared words are atomics, so no interrupt masking is
// required around reads.
type Counter struct {
	t       Timer
	clockHz uint32
	modulus uint32

	mu      sync.Mutex
	running bool

	last   atomic.Uint32 // previous capture value
	primed atomic.Bool   // last holds a valid capture
	stalls atomic.Uint32 // rollovers since the last capture

	// cell packs the latest frequency in Hz (high 32 bits) with the
	// fresh-sample flag (bit 0). Handlers publish with a single store,
	// TakeSample consumes with a CAS that clears only the flag.
	cell atomic.Uint64
}

// New returns a Counter driving the given timer. The counter starts
// paused; call Resume before measuring.
func New(t Timer) (*Counter, error) {
	hz := uint32(t.Clock() / physic.Hertz)
	if hz == 0 {
		return nil, errors.New("freqcount: timer clock below 1Hz")
	}
	if t.Modulus() == 0 {
		return nil, errors.New("freqcount: timer modulus is zero")
	}
	return &Counter{t: t, clockHz: hz, modulus: t.Modulus()}, nil
}

// Resume attaches the interrupt handlers and starts the timer. Any sample
// left over from before the pause is discarded.
func (c *Counter) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.primed.Store(false)
	c.stalls.Store(0)
	c.cell.Store(0)
	c.t.Attach(c.capture, c.rollover)
	if err := c.t.Start(); err != nil {
		c.t.Detach()
		return err
	}
	c.running = true
	return nil
}

// Pause detaches the interrupt handlers and halts the timer, typically
// between measurement phases to save power.
func (c *Counter) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.t.Detach()
	c.running = false
	return c.t.Stop()
}

// capture runs in interrupt context on each rising edge of the input.
func (c *Counter) capture(raw uint32) {
	c.stalls.Store(0)
	last := c.last.Swap(raw)
	if !c.primed.Swap(true) {
		// First edge since Resume: record it, nothing to diff against.
		return
	}
	var delta uint32
	if raw > last {
		delta = raw - last
	} else {
		// The counter wrapped between the two edges.
		delta = c.modulus + raw - last
	}
	c.cell.Store(uint64(c.clockHz/delta)<<32 | fresh)
}

// rollover runs in interrupt context whenever the counter wraps without an
// intervening capture.
func (c *Counter) rollover() {
	if c.stalls.Add(1) > 1 {
		// More than one full timer period without an edge: the oscillator
		// is not running. Zero the frequency without raising the fresh
		// flag, so averaging over a dead input times out.
		c.cell.Store(0)
	}
}

// Frequency returns the most recently derived input frequency. It reads 0
// when no edge has been captured for more than one full timer period.
func (c *Counter) Frequency() physic.Frequency {
	return physic.Frequency(c.cell.Load()>>32) * physic.Hertz
}

// TakeSample consumes the pending measurement, if any. The fresh flag is
// cleared so each published sample is returned at most once.
func (c *Counter) TakeSample() (physic.Frequency, bool) {
	for {
		v := c.cell.Load()
		if v&fresh == 0 {
			return 0, false
		}
		if c.cell.CompareAndSwap(v, v&^uint64(fresh)) {
			return physic.Frequency(v>>32) * physic.Hertz, true
		}
	}
}

// Halt pauses the counter. Implements conn.Resource.
func (c *Counter) Halt() error {
	return c.Pause()
}

func (c *Counter) String() string {
	return "freqcount"
}

var _ conn.Resource = &Counter{}

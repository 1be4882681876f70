// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package humcap measures relative humidity with a capacitive sensor in a
// relaxation oscillator.
//
// The oscillator's frequency depends on whichever capacitor a select
// switch puts in circuit: a fixed reference capacitor or the humidity
// sensing element. Each measurement cycle first calibrates against the
// reference, then measures the sensing element, derives the sensor
// capacitance from the frequency ratio and converts it to %RH with
// temperature compensation.
//
// The select switch is owned exclusively by this package; handing the pin
// to New must be the only place it is ever driven, or a concurrent toggle
// would corrupt a running measurement.
package humcap

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/Mika-1818/ReSonde/freqcount"
	"github.com/Mika-1818/ReSonde/telemetry"
)

// Switch positions. The reference side is the idle position.
const (
	referenceSide = gpio.Low
	sensorSide    = gpio.High
)

// ErrNoOscillation is returned when an averaging window completes but the
// oscillator shows no measurable frequency.
var ErrNoOscillation = errors.New("humcap: oscillator not running")

// Opts holds the device-specific calibration data. These are board
// constants, not tuning knobs; measure them per hardware revision.
type Opts struct {
	// RefPicofarad is the fixed reference capacitor switched in during
	// calibration.
	RefPicofarad float64
	// ZeroPicofarad is the sensing element's nominal capacitance at 0 %RH.
	ZeroPicofarad float64
	// Sensitivity is the element's fractional capacitance change per %RH.
	Sensitivity float64
	// StrayPicofarad is the wiring capacitance subtracted from the
	// measured total.
	StrayPicofarad float64
	// TempCoefficient scales the compensation term: picofarad per %RH per
	// degree of probe temperature above 30C.
	TempCoefficient float64
	// Samples is the averaging window size per phase.
	Samples int
	// Deadline bounds each averaging window.
	Deadline time.Duration
	// Settle is the oscillator stabilization delay after moving the
	// switch.
	Settle time.Duration
}

// DefaultOpts matches the tracker's sensing element at nominal datasheet
// values.
var DefaultOpts = Opts{
	RefPicofarad:    180,
	ZeroPicofarad:   160,
	Sensitivity:     0.0034,
	StrayPicofarad:  20,
	TempCoefficient: -0.0014,
	Samples:         100,
	Deadline:        50 * time.Millisecond,
	Settle:          5 * time.Millisecond,
}

// Dev is a handle to the humidity sensing chain.
type Dev struct {
	counter *freqcount.Counter
	sel     gpio.PinOut
	opts    Opts

	mu sync.Mutex
	// lastRH is the previous cycle's unclamped estimate, input to the
	// next cycle's compensation term. Process-lifetime state: zero at
	// start, never reset.
	lastRH float64
}

// New returns a Dev measuring through the given counter and select pin.
// The pin is parked on the reference side. The Opts can be nil for the
// defaults.
func New(counter *freqcount.Counter, sel gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.RefPicofarad <= 0 || opts.ZeroPicofarad <= 0 || opts.Sensitivity <= 0 {
		return nil, errors.New("humcap: capacitance constants must be positive")
	}
	if opts.Samples <= 0 {
		return nil, errors.New("humcap: sample count must be positive")
	}
	if err := sel.Out(referenceSide); err != nil {
		return nil, fmt.Errorf("humcap: %w", err)
	}
	return &Dev{counter: counter, sel: sel, opts: *opts}, nil
}

// PacketHumidity runs one calibrate-then-measure cycle and returns the
// packet humidity code. temp must be the probe temperature already read
// this cycle; the compensation term mixes it with the previous cycle's
// humidity estimate.
//
// Any failure degrades to telemetry.HumidityFailed with the cause as the
// error; the code is always safe to place in the packet. On every exit
// path the switch ends on the reference side and the counter paused.
func (d *Dev) PacketHumidity(temp physic.Temperature) (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.counter.Resume(); err != nil {
		return telemetry.HumidityFailed, fmt.Errorf("humcap: %w", err)
	}
	defer func() {
		_ = d.sel.Out(referenceSide)
		_ = d.counter.Pause()
	}()

	// Calibration against the reference capacitor.
	fCal, err := d.phase(referenceSide)
	if err != nil {
		return telemetry.HumidityFailed, err
	}

	// Measurement of the sensing element.
	fRH, err := d.phase(sensorSide)
	if err != nil {
		return telemetry.HumidityFailed, err
	}

	// The frequency ratio gives the total capacitance in circuit; the
	// element's own capacitance is what remains after the stray term.
	total := d.opts.RefPicofarad * (float64(fCal) / float64(fRH))
	cRH := total - d.opts.StrayPicofarad

	dC := d.opts.TempCoefficient * d.lastRH * (temp.Celsius() - 30.0)
	rh := ((cRH - dC) - d.opts.ZeroPicofarad) /
		(d.opts.ZeroPicofarad * d.opts.Sensitivity)

	// The unclamped estimate feeds the next cycle's compensation even
	// when it is outside the encodable range.
	d.lastRH = rh
	return telemetry.EncodeHumidity(rh), nil
}

// phase points the oscillator at one capacitor, waits out the settling
// time and averages the resulting frequency.
func (d *Dev) phase(side gpio.Level) (physic.Frequency, error) {
	if err := d.sel.Out(side); err != nil {
		return 0, fmt.Errorf("humcap: %w", err)
	}
	time.Sleep(d.opts.Settle)
	// An edge captured while the oscillator settles is stale; drop any
	// pending sample so the window starts clean.
	d.counter.TakeSample()
	f, err := d.counter.Average(d.opts.Samples, d.opts.Deadline)
	if err != nil {
		return 0, fmt.Errorf("humcap: %w", err)
	}
	if f == 0 {
		return 0, ErrNoOscillation
	}
	return f, nil
}

// LastRH returns the previous cycle's unclamped humidity estimate in
// percent.
func (d *Dev) LastRH() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRH
}

// Halt parks the switch and pauses the counter. Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sel.Out(referenceSide); err != nil {
		return fmt.Errorf("humcap: %w", err)
	}
	return d.counter.Pause()
}

func (d *Dev) String() string {
	return fmt.Sprintf("humcap: %s", d.sel)
}

var _ conn.Resource = &Dev{}

// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package max31865

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/Mika-1818/ReSonde/telemetry"
)

// Wiring selects the RTD connection scheme.
type Wiring byte

const (
	TwoWire Wiring = iota
	ThreeWire
	FourWire
)

// Fault is the chip's latched fault status bitmask.
type Fault byte

const (
	// FaultHighThreshold: RTD reading above the high fault threshold.
	FaultHighThreshold Fault = 0x80
	// FaultLowThreshold: RTD reading below the low fault threshold.
	FaultLowThreshold Fault = 0x40
	// FaultRefInHigh: REFIN- above 0.85 x VBIAS.
	FaultRefInHigh Fault = 0x20
	// FaultRefInLow: REFIN- below 0.85 x VBIAS with FORCE- open.
	FaultRefInLow Fault = 0x10
	// FaultRTDInLow: RTDIN- below 0.85 x VBIAS with FORCE- open.
	FaultRTDInLow Fault = 0x08
	// FaultOverUnderVoltage: any protected input outside the supply rails.
	FaultOverUnderVoltage Fault = 0x04
)

var faultNames = []struct {
	f    Fault
	name string
}{
	{FaultHighThreshold, "high threshold"},
	{FaultLowThreshold, "low threshold"},
	{FaultRefInHigh, "REFIN- too high"},
	{FaultRefInLow, "REFIN- too low"},
	{FaultRTDInLow, "RTDIN- too low"},
	{FaultOverUnderVoltage, "over/under voltage"},
}

func (f Fault) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range faultNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, ", ")
}

// FaultError reports fault bits latched during a conversion.
type FaultError struct {
	Fault Fault
}

func (e *FaultError) Error() string {
	return "max31865: fault: " + e.Fault.String()
}

// packetSentinels are the wire-unit substitutes for latched faults; the
// first matching bit wins. A sentinel is indistinguishable from a genuine
// reading of the same magnitude (320 is also 1.0C) - the packet has no
// separate status field.
var packetSentinels = []struct {
	f Fault
	v int16
}{
	{FaultHighThreshold, 320},
	{FaultLowThreshold, -320},
	{FaultRefInLow, 480},
	{FaultRefInHigh, -480},
	{FaultRTDInLow, 640},
	{FaultOverUnderVoltage, -640},
}

// Register addresses. Writes use the address with the top bit set.
const (
	regConfig   byte = 0x00
	regRTDMSB   byte = 0x01
	regFaultMSB byte = 0x03
	regFault    byte = 0x07

	writeMask byte = 0x80
)

// Configuration register bits.
const (
	configBias       byte = 0x80
	configAuto       byte = 0x40
	configOneShot    byte = 0x20
	configThreeWire  byte = 0x10
	configFaultClear byte = 0x02
	configFilter50Hz byte = 0x01
)

// Conversion timing from the datasheet: bias settling, then a one-shot
// conversion worst case under the 60Hz filter.
const (
	biasSettle  = 10 * time.Millisecond
	convertWait = 65 * time.Millisecond
)

// Callendar-Van Dusen coefficients for platinum RTDs (IEC 751).
const (
	rtdA = 3.9083e-3
	rtdB = -5.775e-7
)

// Opts holds the configuration options for the converter.
type Opts struct {
	// Wiring is the RTD connection scheme.
	Wiring Wiring
	// RefOhms is the reference resistor on the board.
	RefOhms float64
	// NominalOhms is the RTD resistance at 0C (1000 for PT1000).
	NominalOhms float64
	// Filter50Hz selects the 50Hz mains rejection filter instead of 60Hz.
	Filter50Hz bool
}

// DefaultOpts matches the tracker board: 3-wire PT1000, 4020 ohm
// reference.
var DefaultOpts = Opts{
	Wiring:      ThreeWire,
	RefOhms:     4020,
	NominalOhms: 1000,
}

// Dev is a handle to a MAX31865.
type Dev struct {
	c    conn.Conn
	opts Opts
	base byte // idle configuration register value

	mu sync.Mutex
}

// New returns a device driven through the given SPI port. The Opts can be
// nil for the defaults.
func New(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.RefOhms <= 0 || opts.NominalOhms <= 0 {
		return nil, errors.New("max31865: reference and nominal resistance must be positive")
	}
	c, err := p.Connect(5*physic.MegaHertz, spi.Mode1, 8)
	if err != nil {
		return nil, fmt.Errorf("max31865: %w", err)
	}
	d := &Dev{c: c, opts: *opts}
	if opts.Wiring == ThreeWire {
		d.base |= configThreeWire
	}
	if opts.Filter50Hz {
		d.base |= configFilter50Hz
	}
	// Known state: bias off, one-shot mode.
	if err := d.writeReg(regConfig, d.base); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) writeReg(reg, v byte) error {
	if err := d.c.Tx([]byte{reg | writeMask, v}, nil); err != nil {
		return fmt.Errorf("max31865: %w", err)
	}
	return nil
}

func (d *Dev) readReg(reg byte) (byte, error) {
	r := make([]byte, 2)
	if err := d.c.Tx([]byte{reg, 0}, r); err != nil {
		return 0, fmt.Errorf("max31865: %w", err)
	}
	return r[1], nil
}

// convert runs one conversion and returns the 15-bit ratio count plus the
// fault status. Prior faults are cleared first, so the status reflects
// this conversion only.
func (d *Dev) convert() (uint16, Fault, error) {
	if err := d.writeReg(regConfig, d.base|configFaultClear); err != nil {
		return 0, 0, err
	}
	if err := d.writeReg(regConfig, d.base|configBias); err != nil {
		return 0, 0, err
	}
	time.Sleep(biasSettle)
	if err := d.writeReg(regConfig, d.base|configBias|configOneShot); err != nil {
		return 0, 0, err
	}
	time.Sleep(convertWait)

	r := make([]byte, 3)
	if err := d.c.Tx([]byte{regRTDMSB, 0, 0}, r); err != nil {
		return 0, 0, fmt.Errorf("max31865: %w", err)
	}
	raw := uint16(r[1])<<8 | uint16(r[2])

	fault, err := d.readReg(regFault)
	if err != nil {
		return 0, 0, err
	}
	// Bias back off to limit RTD self-heating between cycles.
	if err := d.writeReg(regConfig, d.base); err != nil {
		return 0, 0, err
	}
	return raw >> 1, Fault(fault), nil
}

// temperature solves the Callendar-Van Dusen equation for the probe
// resistance. Below 0C the quadratic no longer holds and a polynomial fit
// is used instead.
func (d *Dev) temperature(rt float64) float64 {
	z2 := rtdA*rtdA - 4*rtdB
	z3 := 4 * rtdB / d.opts.NominalOhms
	c := (-rtdA + math.Sqrt(z2+z3*rt)) / (2 * rtdB)
	if c >= 0 {
		return c
	}

	rt = rt / d.opts.NominalOhms * 100
	rpoly := rt
	c = -242.02 + 2.2228*rpoly
	rpoly *= rt
	c += 2.5859e-3 * rpoly
	rpoly *= rt
	c -= 4.826e-6 * rpoly
	rpoly *= rt
	c -= 2.8183e-8 * rpoly
	rpoly *= rt
	c += 1.5243e-10 * rpoly
	return c
}

// Read runs one conversion and returns the probe temperature along with
// any fault latched during the conversion. The temperature is meaningless
// when fault is non-zero.
func (d *Dev) Read() (physic.Temperature, Fault, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, fault, err := d.convert()
	if err != nil {
		return 0, 0, err
	}
	rt := float64(raw) * d.opts.RefOhms / 32768
	c := d.temperature(rt)
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Kelvin)), fault, nil
}

// PacketTemperature returns the temperature in the telemetry packet's
// 1/320C unit. A latched fault is mapped to its out-of-envelope sentinel
// in priority order instead of failing the acquisition cycle.
func (d *Dev) PacketTemperature() (int16, error) {
	t, fault, err := d.Read()
	if err != nil {
		return 0, err
	}
	if fault != 0 {
		for _, s := range packetSentinels {
			if fault&s.f != 0 {
				return s.v, nil
			}
		}
	}
	return telemetry.EncodeTemperature(t), nil
}

// Sense implements physic.SenseEnv. A latched fault is returned as a
// *FaultError.
func (d *Dev) Sense(e *physic.Env) error {
	t, fault, err := d.Read()
	if err != nil {
		return err
	}
	if fault != 0 {
		return &FaultError{Fault: fault}
	}
	e.Temperature = t
	return nil
}

// SenseContinuous is not implemented; the driver only runs one-shot
// conversions.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	return nil, errors.New("max31865: SenseContinuous is not supported")
}

// Precision implements physic.SenseEnv. One LSB of the 15-bit ratio is
// about 0.03C for the PT1000/4020 ohm pairing.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 32 * physic.MilliKelvin
	e.Pressure = 0
	e.Humidity = 0
}

// Halt turns the bias current off. Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(regConfig, d.base)
}

func (d *Dev) String() string {
	return fmt.Sprintf("max31865: %s", d.c)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}

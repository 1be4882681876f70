// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package max31865

import (
	"errors"
	"math"
	"testing"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

// conversionOps scripts one full one-shot conversion returning the given
// RTD register contents and fault status. The config register is 0x10
// (3-wire) when idle.
func conversionOps(rtdMSB, rtdLSB, fault byte) []conntest.IO {
	return []conntest.IO{
		{W: []byte{0x80, 0x12}, R: nil},                         // clear faults
		{W: []byte{0x80, 0x90}, R: nil},                         // bias on
		{W: []byte{0x80, 0xB0}, R: nil},                         // one-shot
		{W: []byte{0x01, 0x00, 0x00}, R: []byte{0, rtdMSB, rtdLSB}}, // RTD registers
		{W: []byte{0x07, 0x00}, R: []byte{0, fault}},            // fault status
		{W: []byte{0x80, 0x10}, R: nil},                         // bias off
	}
}

func newTestDev(t *testing.T, ops []conntest.IO) *Dev {
	t.Helper()
	pb := &spitest.Playback{
		Playback: conntest.Playback{
			Ops:       append([]conntest.IO{{W: []byte{0x80, 0x10}, R: nil}}, ops...),
			DontPanic: true,
		},
	}
	d, err := New(pb, nil)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSense(t *testing.T) {
	// Ratio count 8866 is 1087.69 ohm, about 22.51C for a PT1000 against
	// the 4020 ohm reference.
	d := newTestDev(t, conversionOps(0x45, 0x44, 0))
	e := physic.Env{}
	if err := d.Sense(&e); err != nil {
		t.Fatal(err)
	}
	if got := e.Temperature.Celsius(); math.Abs(got-22.51) > 0.05 {
		t.Fatalf("Sense() = %.4fC, want about 22.51C", got)
	}
}

func TestSenseBelowZero(t *testing.T) {
	// Ratio count 7192 is on the polynomial branch, about -29.97C.
	d := newTestDev(t, conversionOps(0x38, 0x30, 0))
	e := physic.Env{}
	if err := d.Sense(&e); err != nil {
		t.Fatal(err)
	}
	if got := e.Temperature.Celsius(); math.Abs(got+29.97) > 0.05 {
		t.Fatalf("Sense() = %.4fC, want about -29.97C", got)
	}
}

func TestSenseFault(t *testing.T) {
	d := newTestDev(t, conversionOps(0x45, 0x44, byte(FaultOverUnderVoltage)))
	e := physic.Env{}
	err := d.Sense(&e)
	var fe *FaultError
	if !errors.As(err, &fe) {
		t.Fatalf("Sense() error = %v, want *FaultError", err)
	}
	if fe.Fault != FaultOverUnderVoltage {
		t.Fatalf("fault = %s, want %s", fe.Fault, FaultOverUnderVoltage)
	}
}

func TestPacketTemperature(t *testing.T) {
	for _, tc := range []struct {
		name  string
		msb   byte
		lsb   byte
		fault Fault
		want  int16
	}{
		// Values derived with the Callendar-Van Dusen coefficients for a
		// PT1000/4020 ohm pairing.
		{"22.5C", 0x45, 0x44, 0, 7203},
		{"-30C", 0x38, 0x30, 0, -9592},
		// Fault sentinels ignore the conversion result entirely.
		{"high threshold", 0x45, 0x44, FaultHighThreshold, 320},
		{"low threshold", 0x00, 0x00, FaultLowThreshold, -320},
		{"REFIN- low", 0x45, 0x44, FaultRefInLow, 480},
		{"REFIN- high", 0x45, 0x44, FaultRefInHigh, -480},
		{"RTDIN- low", 0x45, 0x44, FaultRTDInLow, 640},
		{"over/under voltage", 0x45, 0x44, FaultOverUnderVoltage, -640},
		// Priority: the high-threshold bit wins over everything else.
		{"all bits", 0x45, 0x44, 0xFC, 320},
		// REFIN- low outranks REFIN- high.
		{"both REFIN-", 0x45, 0x44, FaultRefInLow | FaultRefInHigh, 480},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDev(t, conversionOps(tc.msb, tc.lsb, byte(tc.fault)))
			got, err := d.PacketTemperature()
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("PacketTemperature() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFaultString(t *testing.T) {
	if got := Fault(0).String(); got != "none" {
		t.Errorf("Fault(0) = %q", got)
	}
	f := FaultHighThreshold | FaultOverUnderVoltage
	if got := f.String(); got != "high threshold, over/under voltage" {
		t.Errorf("String() = %q", got)
	}
}

func TestNewRejectsBadOpts(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
	if _, err := New(pb, &Opts{Wiring: ThreeWire, RefOhms: 0, NominalOhms: 1000}); err == nil {
		t.Fatal("New() accepted a zero reference resistance")
	}
}

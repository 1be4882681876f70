// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package battery samples the tracker's supply voltage divider.
//
// The divider feeds an ADC input; the reading is rescaled linearly into
// the telemetry packet's 8-bit battery field. Ground software recovers
// volts as raw * 3.3 / 255.
package battery

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// Monitor reads the battery divider through an ADC pin.
type Monitor struct {
	pin analog.PinADC
}

// New returns a Monitor sampling the given pin.
func New(pin analog.PinADC) (*Monitor, error) {
	min, max := pin.Range()
	if max.Raw <= min.Raw {
		return nil, errors.New("battery: ADC pin reports an empty range")
	}
	return &Monitor{pin: pin}, nil
}

// PacketVoltage samples the divider and rescales the pin's raw range to
// the packet's 0..255 domain. The transform is pure and cannot produce an
// out-of-domain value; only the ADC read itself can fail.
func (m *Monitor) PacketVoltage() (uint8, error) {
	s, err := m.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("battery: %w", err)
	}
	min, max := m.pin.Range()
	raw := s.Raw
	if raw < min.Raw {
		raw = min.Raw
	}
	if raw > max.Raw {
		raw = max.Raw
	}
	return uint8(int64(raw-min.Raw) * 255 / int64(max.Raw-min.Raw)), nil
}

// Voltage samples the divider and returns the electrical potential at the
// ADC input.
func (m *Monitor) Voltage() (physic.ElectricPotential, error) {
	s, err := m.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("battery: %w", err)
	}
	return s.V, nil
}

// Halt halts the underlying pin. Implements conn.Resource.
func (m *Monitor) Halt() error {
	return m.pin.Halt()
}

func (m *Monitor) String() string {
	return fmt.Sprintf("battery: %s", m.pin.Name())
}

var _ conn.Resource = &Monitor{}

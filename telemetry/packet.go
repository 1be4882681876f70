// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package telemetry

import (
	"encoding/binary"
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
)

// PacketSize is the marshaled size of a Packet in bytes.
const PacketSize = 31

// Humidity field codes outside the measurable range.
const (
	// HumiditySaturated encodes a reading above the measurable range.
	HumiditySaturated uint8 = 252
	// HumidityFailed encodes a failed humidity measurement.
	HumidityFailed uint8 = 255
)

// Packet is one telemetry record. The JSON tags match the field names of
// the dashboard upload API.
type Packet struct {
	// SerialNumber identifies the transmitting device.
	SerialNumber uint16 `json:"sn"`
	// Counter increments once per acquisition cycle.
	Counter uint16 `json:"counter"`
	// Time is Unix epoch seconds from the navigation fix.
	Time uint32 `json:"time"`
	// Latitude in 1e-7 degree.
	Latitude int32 `json:"lat"`
	// Longitude in 1e-7 degree.
	Longitude int32 `json:"lon"`
	// Altitude above mean sea level in millimeters.
	Altitude int32 `json:"alt"`
	// VerticalSpeed in cm/s, positive up.
	VerticalSpeed int16 `json:"vSpeed"`
	// EastSpeed in cm/s.
	EastSpeed int16 `json:"eSpeed"`
	// NorthSpeed in cm/s.
	NorthSpeed int16 `json:"nSpeed"`
	// Satellites is the navigation satellites-in-view count.
	Satellites uint8 `json:"sats"`
	// Temperature in 1/320 degree Celsius.
	Temperature int16 `json:"temp"`
	// Humidity in 0.5 %RH steps up to 250, or one of the sentinel codes.
	Humidity uint8 `json:"rh"`
	// Battery is the raw supply reading; volts = raw * 3.3 / 255.
	Battery uint8 `json:"battery"`
}

// Report is a decoded packet together with the link-quality metric the
// radio layer measured for it, in the shape the dashboard upload expects.
type Report struct {
	Packet
	// RSSI of the received transmission in dBm.
	RSSI float64 `json:"rssi"`
}

// MarshalBinary renders the packed little-endian wire layout. It never
// fails; the error is for encoding.BinaryMarshaler.
func (p *Packet) MarshalBinary() ([]byte, error) {
	b := make([]byte, PacketSize)
	le := binary.LittleEndian
	le.PutUint16(b[0:], p.SerialNumber)
	le.PutUint16(b[2:], p.Counter)
	le.PutUint32(b[4:], p.Time)
	le.PutUint32(b[8:], uint32(p.Latitude))
	le.PutUint32(b[12:], uint32(p.Longitude))
	le.PutUint32(b[16:], uint32(p.Altitude))
	le.PutUint16(b[20:], uint16(p.VerticalSpeed))
	le.PutUint16(b[22:], uint16(p.EastSpeed))
	le.PutUint16(b[24:], uint16(p.NorthSpeed))
	b[26] = p.Satellites
	le.PutUint16(b[27:], uint16(p.Temperature))
	b[29] = p.Humidity
	b[30] = p.Battery
	return b, nil
}

// UnmarshalBinary parses the layout written by MarshalBinary.
func (p *Packet) UnmarshalBinary(b []byte) error {
	if len(b) != PacketSize {
		return fmt.Errorf("telemetry: packet is %d bytes, want %d", len(b), PacketSize)
	}
	le := binary.LittleEndian
	p.SerialNumber = le.Uint16(b[0:])
	p.Counter = le.Uint16(b[2:])
	p.Time = le.Uint32(b[4:])
	p.Latitude = int32(le.Uint32(b[8:]))
	p.Longitude = int32(le.Uint32(b[12:]))
	p.Altitude = int32(le.Uint32(b[16:]))
	p.VerticalSpeed = int16(le.Uint16(b[20:]))
	p.EastSpeed = int16(le.Uint16(b[22:]))
	p.NorthSpeed = int16(le.Uint16(b[24:]))
	p.Satellites = b[26]
	p.Temperature = int16(le.Uint16(b[27:]))
	p.Humidity = b[29]
	p.Battery = b[30]
	return nil
}

// EncodeTemperature converts a temperature to the packet's 1/320 degree
// Celsius fixed-point unit.
func EncodeTemperature(t physic.Temperature) int16 {
	return int16(math.Round(t.Celsius() * 320))
}

// EncodeHumidity clamps a relative humidity in percent to the field's
// domain and converts it to 0.5 %RH steps. Values above the measurable
// range encode as HumiditySaturated.
func EncodeHumidity(rh float64) uint8 {
	switch {
	case rh < 0:
		return 0
	case rh > 125:
		return HumiditySaturated
	}
	return uint8(math.Round(rh * 2))
}

// TemperatureCelsius returns the temperature field in degrees Celsius.
func (p *Packet) TemperatureCelsius() float64 {
	return float64(p.Temperature) / 320
}

// RelativeHumidity returns the humidity field in percent. ok is false when
// the field holds a sentinel code instead of a reading.
func (p *Packet) RelativeHumidity() (rh float64, ok bool) {
	if p.Humidity > 250 {
		return 0, false
	}
	return float64(p.Humidity) / 2, true
}

// BatteryVolts returns the battery field as a supply voltage.
func (p *Packet) BatteryVolts() float64 {
	return float64(p.Battery) * 3.3 / 255
}

// LatitudeDegrees returns the latitude field in degrees.
func (p *Packet) LatitudeDegrees() float64 {
	return float64(p.Latitude) * 1e-7
}

// LongitudeDegrees returns the longitude field in degrees.
func (p *Packet) LongitudeDegrees() float64 {
	return float64(p.Longitude) * 1e-7
}

// AltitudeMeters returns the altitude field in meters above mean sea
// level.
func (p *Packet) AltitudeMeters() float64 {
	return float64(p.Altitude) * 1e-3
}

// String renders the record as the comma-separated row the ground tools
// log.
func (p *Packet) String() string {
	return fmt.Sprintf("%d, %d, %d, %d, %d, %d, %d, %d, %d, %d, %d, %d, %d",
		p.SerialNumber, p.Counter, p.Time, p.Latitude, p.Longitude,
		p.Altitude, p.VerticalSpeed, p.EastSpeed, p.NorthSpeed,
		p.Satellites, p.Temperature, p.Humidity, p.Battery)
}

// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package telemetry defines the fixed-layout record exchanged between the
// ReSonde tracker and its ground receiver.
//
// The tracker assembles one Packet per acquisition cycle from the
// navigation, temperature, humidity and battery readings and hands the
// marshaled bytes to the radio; the receiver unmarshals the identical
// layout from the bytes the radio delivers. The layout is packed
// little-endian with no padding, so both MCU families and host software
// agree on every offset.
//
// All fields carry already-scaled integer units; the codec itself never
// rounds or validates. The unit encoders used by the sensor packages
// (EncodeTemperature, EncodeHumidity) live here so the scaling rules have
// a single home.
package telemetry

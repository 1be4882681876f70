// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package resonde is a container for the tracker's sensing drivers and the
// telemetry frame codec.
//
// Each sensor lives in its own package: freqcount for the capture-timer
// frequency counter, max31865 for the RTD probe, humcap for the capacitive
// humidity chain and battery for the supply monitor. telemetry packs their
// readings into the radio frame.
package resonde

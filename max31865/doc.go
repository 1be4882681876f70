// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package max31865 controls a MAX31865 RTD-to-digital converter over SPI.
//
// The converter excites a platinum resistance probe against a reference
// resistor and digitizes the ratio; the driver runs one-shot conversions,
// converts the ratio to a temperature with the Callendar-Van Dusen
// equation and surfaces the chip's latched fault bits. On the ReSonde
// tracker the probe is a 3-wire PT1000 against a 4020 ohm reference.
//
// Datasheet: https://www.analog.com/media/en/technical-documentation/data-sheets/MAX31865.pdf
package max31865

// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package max31865_test

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/Mika-1818/ReSonde/max31865"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Use spireg SPI port registry to find the first available SPI port.
	p, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	// nil for the default PT1000 options or &max31865.DefaultOpts.
	d, err := max31865.New(p, nil)
	if err != nil {
		log.Fatalf("failed to initialize max31865: %v", err)
	}

	t, fault, err := d.Read()
	if err != nil {
		log.Fatal(err)
	}
	if fault != 0 {
		log.Fatalf("RTD fault: %v", fault)
	}
	fmt.Printf("%8s\n", t)
}

// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package telemetry_test

import (
	"encoding/json"
	"fmt"
	"log"

	"periph.io/x/conn/v3/physic"

	"github.com/Mika-1818/ReSonde/telemetry"
)

func Example() {
	p := telemetry.Packet{
		SerialNumber: 2024,
		Counter:      17,
		Time:         47115,
		Latitude:     520901230,
		Longitude:    131234560,
		Altitude:     2841700,
		Satellites:   9,
		Temperature:  telemetry.EncodeTemperature(physic.ZeroCelsius - 12800*physic.MilliKelvin),
		Humidity:     telemetry.EncodeHumidity(78.5),
		Battery:      193,
	}
	b, err := p.MarshalBinary()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d byte frame\n", len(b))

	// The receiver wraps the decoded frame with the link quality before
	// uploading it.
	r := telemetry.Report{Packet: p, RSSI: -87.5}
	j, err := json.Marshal(&r)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s\n", j)
	// Output:
	// 31 byte frame
	// {"sn":2024,"counter":17,"time":47115,"lat":520901230,"lon":131234560,"alt":2841700,"vSpeed":0,"eSpeed":0,"nSpeed":0,"sats":9,"temp":-4096,"rh":157,"battery":193,"rssi":-87.5}
}

// decoder-dump prints the decoder truth table: for a severity level, every
// combination of the six sensor flags and the actuator command it produces.
// Useful for eyeballing rule changes against the documented policy.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/greenstack-labs/envmon-controller/internal/decision"
	"github.com/greenstack-labs/envmon-controller/internal/model"
	"github.com/greenstack-labs/envmon-controller/internal/severity"
)

func main() {
	var levelName string
	flag.StringVar(&levelName, "level", "", "Severity level to dump (idle, single, multiple, critical, emergency); empty dumps all")
	flag.Parse()

	var levels []model.SeverityLevel
	if levelName == "" {
		levels = model.Levels[:]
	} else {
		level, ok := model.LevelFromName(levelName)
		if !ok {
			fmt.Printf("Unknown level %q\n", levelName)
			os.Exit(1)
		}
		levels = []model.SeverityLevel{level}
	}

	for _, level := range levels {
		fmt.Printf("\n=== level: %s ===\n", level)
		fmt.Println("T H V D A L | count next      | exh duct hum dehum cool led | duct-demand")

		for mask := 0; mask < 64; mask++ {
			reading := readingFromMask(mask)
			count := decision.CountAbnormal(reading)
			next := severity.Classify(count)
			cmd, demand := decision.Decode(level, reading)

			fmt.Printf("%s | %d     %-9s | %s   %s    %s   %s     %s    %s | %s\n",
				flags(reading),
				count, next,
				bit(cmd.ExhaustFan), bit(cmd.InlineDuctFan), bit(cmd.Humidifier),
				bit(cmd.Dehumidifier), bit(cmd.CoolingSystem), bit(cmd.LEDLight),
				bit(demand.InlineDuctFan))
		}
	}
}

func readingFromMask(mask int) model.SensorReading {
	var r model.SensorReading
	for i, c := range model.Channels {
		r.SetFlag(c, mask&(1<<i) == 0)
	}
	return r
}

func flags(r model.SensorReading) string {
	out := ""
	for i, c := range model.Channels {
		if i > 0 {
			out += " "
		}
		out += bit(r.Flag(c))
	}
	return out
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

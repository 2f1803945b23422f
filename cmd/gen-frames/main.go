/*
 * gen-frames runs the bubble simulation offline over the profit CSV
 * received on stdin and writes one frame per sample to stdout in json
 * format, for pre-rendering or tuning without the HTTP server.
 */
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/mapcviz/profit-flow-backend/flowsim"
	"github.com/mapcviz/profit-flow-backend/internal/controller"
	"github.com/mapcviz/profit-flow-backend/profitdata"
)

func main() {
	timeStep := flag.Float64("step", 0.02, "scrub-years between samples")
	ticksPerStep := flag.Int("ticks", 5, "physics ticks to run per sample")
	flag.Parse()

	series, err := profitdata.LoadProfits(os.Stdin)
	if err != nil {
		log.Fatal(err)
	}
	chart := flowsim.NewChart(series.ProfitAt, flowsim.Config{})

	enc := json.NewEncoder(os.Stdout)
	min, max := float64(series.MinYear()), float64(series.MaxYear())
	for t := min; t <= max; t += *timeStep {
		chart.Reconcile(t)
		for i := 0; i < *ticksPerStep; i++ {
			chart.Step(t, 1.0)
		}
		frame := controller.Snapshot(series, nil, chart, t, false)
		if err := enc.Encode(&frame); err != nil {
			log.Fatal(err)
		}
	}
	log.Printf("generated frames for years [%v, %v], tail speed %v", min, max, chart.TotalSpeed(max))
}

// Command locate runs the location pipeline once over a waveform file and
// prints the results as JSON, without the service or its database.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/microseis/gridloc/internal/config"
	"github.com/microseis/gridloc/internal/locate"
	"github.com/microseis/gridloc/internal/waveform"
)

func main() {
	waveformPath := flag.String("waveform", "", "waveform record to process")
	sitePath := flag.String("site", "site.json", "site descriptor")
	paramsPath := flag.String("params", "", "processing parameters JSON (optional)")
	output := flag.String("o", "", "write results JSON to file instead of stdout")
	flag.Parse()

	if *waveformPath == "" {
		log.Fatal("waveform path is required")
	}

	site, err := waveform.LoadSite(*sitePath)
	if err != nil {
		log.Fatalf("failed to load site: %v", err)
	}

	params := &config.Processing{}
	if *paramsPath != "" {
		params, err = config.Load(*paramsPath)
		if err != nil {
			log.Fatalf("failed to load parameters: %v", err)
		}
	}

	header, signals, err := waveform.ReadFile(*waveformPath)
	if err != nil {
		log.Fatalf("failed to read waveform: %v", err)
	}
	if int(header.Stations) != len(site.Stations) {
		log.Fatalf("waveform has %d stations, site has %d", header.Stations, len(site.Stations))
	}

	model, err := site.Model()
	if err != nil {
		log.Fatalf("failed to build model: %v", err)
	}

	frequency := int(header.Frequency)
	if frequency == 0 {
		frequency = params.GetFrequency()
	}

	dx, dy, dz := params.GetGridStep()
	nx, ny, nz := params.GetGridCounts()
	pipeline := locate.PipelineParams{
		Delay: locate.DelayParams{
			SignalLength:   int(header.Samples),
			StationsCount:  len(site.Stations),
			WindowSize:     params.GetWindowSize(),
			ScannerSize:    params.GetScannerSize(),
			MinCorrelation: params.GetMinCorrelation(),
			BaseStation:    params.GetBaseStation(),
			Workers:        params.GetWorkers(),
		},
		Grid: locate.GridParams{
			Model:     model,
			Geometry:  site.Geometry(),
			Grid:      locate.Grid{DX: dx, DY: dy, DZ: dz, NX: nx, NY: ny, NZ: nz},
			Accuracy:  params.GetAccuracy(),
			Frequency: frequency,
			Workers:   params.GetWorkers(),
		},
	}

	center := [3]float32{
		float32(site.Center[0]),
		float32(site.Center[1]),
		float32(site.Center[2]),
	}
	result, err := locate.Run(signals, center, pipeline)
	if err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}
	log.Printf("picked %d events, located %d", len(result.Picks), len(result.Located))

	out := os.Stdout
	if *output != "" {
		out, err = os.Create(*output)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer out.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("failed to encode results: %v", err)
	}
}

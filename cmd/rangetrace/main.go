// Command rangetrace replays a mutation script against an observed slice
// and prints every committed range update, checking that a consumer fed
// only those updates stays identical to the slice.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/tailored-agentic-units/reactive/engine"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to engine config JSON or YAML file")
		scriptFile = flag.String("script", "", "Path to mutation script JSON or YAML file (required)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
		metrics    = flag.Bool("metrics", false, "Print event counters in Prometheus text format")
	)
	flag.Parse()

	if *scriptFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: rangetrace -script <file> [-config <file>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := engine.DefaultConfig()
	if *configFile != "" {
		loaded, err := engine.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := engine.NewLogger(&cfg, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	var reg *prometheus.Registry
	if *metrics {
		reg = prometheus.NewRegistry()
		opts = append(opts, engine.WithRegisterer(reg))
	}

	e, err := engine.New(&cfg, opts...)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	script, err := LoadScript(*scriptFile)
	if err != nil {
		log.Fatalf("Failed to load script: %v", err)
	}

	report, err := Replay(e, script, os.Stdout)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	fmt.Printf("\nSteps: %d  Flushes: %d  Updates: %d  In sync: %v\n",
		report.Steps, report.Flushes, report.Updates, report.InSync)

	if reg != nil {
		families, err := reg.Gather()
		if err != nil {
			log.Fatalf("Failed to gather metrics: %v", err)
		}
		fmt.Println()
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
				log.Fatalf("Failed to write metrics: %v", err)
			}
		}
	}

	if !report.InSync {
		os.Exit(2)
	}
}

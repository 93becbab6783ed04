package main

// flags.go parses gnosis-inspect's command-line flags into an options
// value consumed by main.go.
//
// © 2025 gnosis authors. MIT License.

import (
	"flag"
	"time"
)

type options struct {
	target           string
	json             bool
	watch            bool
	interval         time.Duration
	heapProfile      string
	goroutineProfile string
	version          bool
}

func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.target, "target", "http://localhost:6060", "base URL of the running gnosis instance")
	flag.BoolVar(&opts.json, "json", false, "print the snapshot as JSON instead of a formatted summary")
	flag.BoolVar(&opts.watch, "watch", false, "poll the snapshot endpoint repeatedly")
	flag.DurationVar(&opts.interval, "interval", 2*time.Second, "polling interval when -watch is set")
	flag.StringVar(&opts.heapProfile, "heap-profile", "", "download a heap pprof profile to this path and exit")
	flag.StringVar(&opts.goroutineProfile, "goroutine-profile", "", "download a goroutine pprof profile to this path and exit")
	flag.BoolVar(&opts.version, "version", false, "print the build version and exit")
	flag.Parse()
	return opts
}

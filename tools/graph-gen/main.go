// tools/graph-gen is a standalone helper for generating deterministic
// synthetic graphs for benchmarking gnosis outside `go test`. It emits
// newline-separated "INCL <subject> <sign>" lines describing a subject
// signing a sign entity — entities are referenced by a generated integer
// name (subjects e0, e1, ...; signs s0, s1, ...), so the script can be
// parsed into pkg/gnosis.Entity/Incl calls by a loader.
//
// Usage:
//
//	go run ./tools/graph-gen -n 1000000 -dist=zipf -seed=42 -out script.txt
//
// Flags:
//
//	-n       number of INCL lines to emit
//	-dist    sign-degree distribution: uniform|zipf
//	-zipfs   zipf s parameter (> 1), controls skew
//	-zipfv   zipf v parameter, controls the low end of the distribution
//	-signs   number of distinct sign entities to draw from
//	-seed    PRNG seed, defaults to the current time
//	-out     output path, defaults to stdout
//
// © 2025 gnosis authors. MIT License.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
	var (
		n       = flag.Int("n", 1_000_000, "number of INCL lines to emit")
		dist    = flag.String("dist", "uniform", "sign-degree distribution: uniform|zipf")
		zipfS   = flag.Float64("zipfs", 1.2, "zipf s parameter")
		zipfV   = flag.Float64("zipfv", 1.0, "zipf v parameter")
		signs   = flag.Int("signs", 4096, "number of distinct sign entities to draw from")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath = flag.String("out", "", "output path (default: stdout)")
	)
	flag.Parse()

	if *signs <= 0 {
		fmt.Fprintln(os.Stderr, "graph-gen: -signs must be positive")
		os.Exit(1)
	}

	rnd := rand.New(rand.NewSource(*seedVal))

	var signOf func() uint64
	switch *dist {
	case "uniform":
		signOf = func() uint64 { return uint64(rnd.Intn(*signs)) }
	case "zipf":
		z := rand.NewZipf(rnd, *zipfS, *zipfV, uint64(*signs-1))
		signOf = z.Uint64
	default:
		fmt.Fprintf(os.Stderr, "graph-gen: unknown -dist %q (want uniform|zipf)\n", *dist)
		os.Exit(1)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "graph-gen:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	for i := 0; i < *n; i++ {
		sign := signOf()
		fmt.Fprintf(w, "INCL e%d s%d\n", i, sign)
	}
}

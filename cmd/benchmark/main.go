package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/delaneyj/signalbind/dom"
	"github.com/delaneyj/signalbind/vm"
)

var (
	ww    = []int{1, 10, 100, 1_000}
	hh    = []int{1, 10, 100}
	iters = 100

	profile = flag.String("cpuprofile", "", "write a CPU profile to this file")
)

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkPropagate(false)
	benchmarkPropagate(true)
}

// template nests each of w interpolations h elements deep.
func template(w, h int) string {
	var sb strings.Builder
	sb.WriteString(`<div id="app">`)
	for i := 0; i < w; i++ {
		sb.WriteString(strings.Repeat("<span>", h))
		sb.WriteString("{{ count }}")
		sb.WriteString(strings.Repeat("</span>", h))
	}
	sb.WriteString(`<input v-model:value="count"></div>`)
	return sb.String()
}

func benchmarkPropagate(shouldRender bool) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tbl := table.NewWriter()
	tbl.SetTitle("signalbind propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "nodes", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			doc, err := dom.ParseString(template(w, h))
			if err != nil {
				log.Fatal(err)
			}
			v, err := vm.New(context.Background(), doc, vm.Options{
				Root:   "#app",
				Data:   map[string]any{"count": 0},
				Logger: logger,
			})
			if err != nil {
				log.Fatal(err)
			}

			tach := tachymeter.New(&tachymeter.Config{Size: iters})
			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := v.Set("count", i+1); err != nil {
					log.Fatal(err)
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					humanize.Comma(int64(w * h)),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/signalbind/pkg/config"
	"github.com/delaneyj/signalbind/pkg/live"
	"github.com/delaneyj/signalbind/pkg/metrics"
	"github.com/delaneyj/signalbind/vm"
)

const (
	configKey      = "config"
	setKey         = "set"
	fingerprintKey = "fingerprint"
	verboseKey     = "verbose"
	addrKey        = "addr"
)

func main() {
	cmd := &cli.Command{
		Name:  "signalbind",
		Usage: "Bind a data object to an HTML template and keep them in sync",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log binding details to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "render",
				Usage:  "Mount the template, apply scripted writes and print the HTML",
				Flags:  append(mountFlags(), &cli.BoolFlag{Name: fingerprintKey, Usage: "Print the xxhash fingerprint after the markup"}),
				Action: render,
			},
			{
				Name:   "inspect",
				Usage:  "List fields, their watchers and every binding site",
				Flags:  mountFlags(),
				Action: inspect,
			},
			{
				Name:  "serve",
				Usage: "Serve the mounted template with a websocket for writes and input events",
				Flags: append(mountFlags(), &cli.StringFlag{
					Name:  addrKey,
					Usage: "Listen address",
					Value: ":8080",
				}),
				Action: serve,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func mountFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     configKey,
			Aliases:  []string{"c"},
			Usage:    "YAML or JSON file with root, template, data and writes",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  setKey,
			Usage: "Extra key=value writes applied after the scripted ones",
		},
	}
}

func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Bool(verboseKey) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func mount(ctx context.Context, cmd *cli.Command, meter *metrics.Meter) (*vm.VM, *config.File, error) {
	f, err := config.Load(cmd.String(configKey))
	if err != nil {
		return nil, nil, err
	}
	doc, err := f.Document()
	if err != nil {
		return nil, nil, err
	}

	opts := f.Options()
	opts.Logger = newLogger(cmd)
	if meter != nil {
		opts.Meter = meter
	}
	v, err := vm.New(ctx, doc, opts)
	if err != nil {
		return nil, nil, err
	}

	if err := f.Apply(v); err != nil {
		return nil, nil, err
	}
	for _, s := range cmd.StringSlice(setKey) {
		key, value, err := config.ParseAssignment(s)
		if err != nil {
			return nil, nil, err
		}
		if err := v.Set(key, value); err != nil {
			return nil, nil, err
		}
	}
	return v, f, nil
}

func render(ctx context.Context, cmd *cli.Command) error {
	v, _, err := mount(ctx, cmd, nil)
	if err != nil {
		return err
	}
	html, fp := v.Render()
	fmt.Println(html)
	if cmd.Bool(fingerprintKey) {
		fmt.Printf("%016x\n", fp)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	meter := metrics.New()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if err := meter.Register(reg); err != nil {
		return err
	}

	v, _, err := mount(ctx, cmd, meter)
	if err != nil {
		return err
	}
	log.Printf("Mounted %d bindings in %v", len(v.Bindings()), time.Since(start))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	srv := live.New(v, live.WithGatherer(reg), live.WithLogger(newLogger(cmd)))
	return srv.Serve(ctx, cmd.String(addrKey))
}

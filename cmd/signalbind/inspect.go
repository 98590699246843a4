package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/signalbind/reactive"
)

func inspect(ctx context.Context, cmd *cli.Command) error {
	v, _, err := mount(ctx, cmd, nil)
	if err != nil {
		return err
	}

	snapshot := v.Snapshot()
	subs := v.Subscribers()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := tablewriter.NewWriter(os.Stdout)
	fields.SetHeader([]string{"field", "value", "watchers"})
	for _, k := range keys {
		fields.Append([]string{
			k,
			reactive.Display(snapshot[k]),
			humanize.Comma(int64(subs[k])),
		})
	}
	fields.Render()

	bindings := v.Bindings()
	sites := tablewriter.NewWriter(os.Stdout)
	sites.SetHeader([]string{"kind", "field", "path"})
	for _, b := range bindings {
		sites.Append([]string{b.Kind.String(), b.Key, b.Path})
	}
	sites.SetFooter([]string{"", "", fmt.Sprintf("%s sites", humanize.Comma(int64(len(bindings))))})
	sites.Render()
	return nil
}

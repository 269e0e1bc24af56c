// Command snapshot inspects a stored news snapshot without starting the bot
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	"github.com/haecker-felix/hebbot/internal/domain/news/registry"
	"github.com/haecker-felix/hebbot/internal/domain/news/repository/file"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "snapshot:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("snapshot", pflag.ContinueOnError)
	storePath := flags.StringP("store", "s", "./store.json", "snapshot file to inspect")
	configPath := flags.StringP("config", "c", "", "bot configuration used to resolve sections and projects")
	asJSON := flags.Bool("json", false, "print the restored news items as JSON")
	if err := flags.Parse(args); err != nil {
		return err
	}

	data, err := os.ReadFile(*storePath)
	if err != nil {
		return err
	}
	snap, err := file.Decode(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", *storePath, err)
	}

	holder := config.NewStaticHolder(&config.Bot{})
	if *configPath != "" {
		holder, err = config.NewHolder(*configPath)
		if err != nil {
			return err
		}
	}

	reg := registry.New(holder)
	if err := reg.Restore(snap); err != nil {
		return err
	}
	items := reg.Items()

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	return printTable(stdout, snap, items)
}

func printTable(w io.Writer, snap entities.Snapshot, items []entities.NewsItem) error {
	fmt.Fprintf(w, "version %d, %d news entries, %d media events, %d pending reactions\n\n",
		snap.Version, len(items), len(snap.Media), len(snap.Pending))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREPORTER\tAPPROVED\tSECTION\tPROJECT\tMEDIA\tMESSAGE")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%d\t%s\n",
			item.ID,
			item.ReporterID,
			item.Approved,
			dash(item.SectionKey),
			dash(item.ProjectKey),
			len(item.Images)+len(item.Videos),
			item.Summary(),
		)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vertextoedge/getfile/internal/adapter/filesystem"
	"github.com/vertextoedge/getfile/internal/service/maintenance"
)

var partialsCmd = &cobra.Command{
	Use:   "partials",
	Short: "Inspect and clean up partial downloads",
}

var (
	listOutput string
	dryRun     bool
)

var partialsListCmd = &cobra.Command{
	Use:     "list [directory]",
	Short:   "List partial downloads with the remote identity they expect",
	Example: "getfile partials list ~/Downloads --output yaml",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		svc := maintenance.New(&maintenance.Config{
			PartialMaxAge: cfg.Maintenance.GetPartialMaxAge(),
		}, filesystem.NewManager(), log)

		partials, err := svc.Scan(dirArg(args))
		if err != nil {
			return err
		}

		switch listOutput {
		case "yaml":
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(partials)
		case "table":
			return printPartials(cmd.OutOrStdout(), partials)
		default:
			return fmt.Errorf("unknown output format %q", listOutput)
		}
	},
}

var partialsCleanCmd = &cobra.Command{
	Use:   "clean [directory]",
	Short: "Remove abandoned partial downloads and those whose target exists",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		maxAge := cfg.Maintenance.GetPartialMaxAge()
		svc := maintenance.New(&maintenance.Config{PartialMaxAge: maxAge}, filesystem.NewManager(), log)

		report, err := svc.Clean(dirArg(args), maxAge, dryRun)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		verb := "Removed"
		if dryRun {
			verb = "Would remove"
		}
		for _, p := range report.Removed {
			fmt.Fprintf(out, "%s %s\n", verb, p.Path)
		}
		fmt.Fprintf(out, "%s %d partial file(s), %s; kept %d\n",
			verb, len(report.Removed), humanize.IBytes(uint64(report.FreedBytes)), len(report.Kept))
		return nil
	},
}

func init() {
	partialsListCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "output format: table or yaml")

	partialsCleanCmd.Flags().Duration("older-than", 7*24*time.Hour, "remove partial files not modified for this long")
	partialsCleanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only print what would be removed")

	partialsCmd.AddCommand(partialsListCmd, partialsCleanCmd)
}

func dirArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func printPartials(w io.Writer, partials []maintenance.Partial) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tSAVED\tTOTAL\tDONE\tREMOTE DATE\tLAST WRITE\tNOTE")
	for _, p := range partials {
		total, done, remoteDate := "unknown", "-", "-"
		if p.RemoteLength >= 0 {
			total = humanize.IBytes(uint64(p.RemoteLength))
		}
		if pct := p.Percent(); pct >= 0 {
			done = fmt.Sprintf("%.1f%%", pct)
		}
		if !p.RemoteModTime.IsZero() {
			remoteDate = p.RemoteModTime.Format(time.RFC3339)
		}

		note := ""
		switch {
		case p.Ambiguous:
			note = "ambiguous name, may belong to " + filepath.Base(p.AltTarget)
		case p.TargetExists:
			note = "target exists"
		case !p.Resumable:
			note = "not resumable"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			filepath.Base(p.Target),
			humanize.IBytes(uint64(p.Size)),
			total,
			done,
			remoteDate,
			humanize.Time(p.ModTime),
			note)
	}
	return tw.Flush()
}

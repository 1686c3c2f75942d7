package main

import (
	"context"
	"fmt"
)

var formatArg = &Argument{
	Name:        "format",
	Description: "Output format",
	Type:        ArgKeyword,
	Values:      []string{string(FormatCLI), string(FormatJSON)},
}

func registerCommands(t *CommandTree) {
	t.AddRoot([]string{"show"}, "Show daemon state")

	t.AddCommand([]string{"show", "radvd"}, "Supervised radvd instances", showRadvd,
		&Argument{Name: "interface", Description: "Limit output to one interface", Type: ArgKeywordWithValue},
		formatArg,
	)
	t.AddCommand([]string{"show", "watchdog"}, "Watchdog target states", showWatchdog, formatArg)
	t.AddCommand([]string{"show", "metrics"}, "radvsup Prometheus series", showMetrics)
}

func showRadvd(ctx context.Context, cli *CLI, args map[string]string) error {
	status, err := cli.client.Status(ctx)
	if err != nil {
		return err
	}

	if ifname, ok := args["interface"]; ok {
		filtered := status[:0]
		for _, st := range status {
			if st.Interface == ifname {
				filtered = append(filtered, st)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("interface %s is not supervised", ifname)
		}
		status = filtered
	}

	return writeOutput(cli.out, status, outputFormat(args), formatStatus)
}

func showWatchdog(ctx context.Context, cli *CLI, args map[string]string) error {
	ready, err := cli.client.Readiness(ctx)
	if err != nil {
		return err
	}
	return writeOutput(cli.out, ready, outputFormat(args), formatReadiness)
}

func showMetrics(ctx context.Context, cli *CLI, args map[string]string) error {
	lines, err := cli.client.Metrics(ctx)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(cli.out, line)
	}
	return nil
}

func outputFormat(args map[string]string) OutputFormat {
	if f, ok := args["format"]; ok {
		return OutputFormat(f)
	}
	return FormatCLI
}

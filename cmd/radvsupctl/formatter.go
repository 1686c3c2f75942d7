package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/veesix-networks/radvsup/internal/radvdmgr"
	"github.com/veesix-networks/radvsup/internal/watchdog"
)

type OutputFormat string

const (
	FormatCLI  OutputFormat = "cli"
	FormatJSON OutputFormat = "json"
)

var (
	goodColor = color.New(color.FgGreen)
	idleColor = color.New(color.FgYellow)
	badColor  = color.New(color.FgRed)
)

func writeOutput[T any](w io.Writer, data T, format OutputFormat, table func(io.Writer, T)) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatCLI:
		table(w, data)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func formatStatus(w io.Writer, status []radvdmgr.InterfaceStatus) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INTERFACE\tNETNS\tSTATE\tPID\tPREFIXES")
	for _, st := range status {
		netns := st.Netns
		if netns == "" {
			netns = "-"
		}
		pid := "-"
		if st.PID != 0 {
			pid = fmt.Sprint(st.PID)
		}
		prefixes := strings.Join(st.Prefixes, ",")
		if prefixes == "" {
			prefixes = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", st.Interface, netns, stateString(st.State), pid, prefixes)
	}
	tw.Flush()

	for _, st := range status {
		if st.ConfigError != "" {
			fmt.Fprintf(w, "%s: %s\n", st.Interface, badColor.Sprintf("config write failed: %s", st.ConfigError))
		}
	}
}

func formatReadiness(w io.Writer, ready *Readiness) {
	fmt.Fprintf(w, "Status: %s\n", stateString(ready.Status))
	if len(ready.Targets) == 0 {
		fmt.Fprintln(w, "No watchdog targets")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tSTATE\tFAILURES\tRESTARTS\tUPTIME\tLAST ERROR")
	for _, t := range ready.Targets {
		uptime := t.Uptime
		if uptime == "" {
			uptime = "-"
		}
		lastErr := "-"
		if t.LastCheck != nil && t.LastCheck.ErrorStr != "" {
			lastErr = t.LastCheck.ErrorStr
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", t.Name, stateString(t.State), t.TotalFailures, t.TotalRestarts, uptime, lastErr)
	}
	tw.Flush()
}

func stateString(state string) string {
	switch state {
	case "announcing", "ready", watchdog.StateUp.String():
		return goodColor.Sprint(state)
	case "stopped", watchdog.StateInit.String():
		return idleColor.Sprint(state)
	default:
		return badColor.Sprint(state)
	}
}

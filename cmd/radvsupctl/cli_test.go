package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const statusBody = `[
 {"interface":"eth1.100","netns":"dataplane","state":"stopped","prefixes":[],"config-path":"/etc/radvsup/radvd.eth1.100.conf","config-error":"read-only file system"},
 {"interface":"veth0","state":"announcing","pid":4242,"prefixes":["2001:db8:0:1::/64","2001:db8:0:2::/64"],"config-path":"/etc/radvsup/radvd.veth0.conf"}
]`

const readyBody = `{"status":"not_ready","targets":[
 {"name":"radvd:veth0","state":"down","critical":true,"last-check":{"healthy":false,"error":"radvd pid 4242 not running","latency-ms":0.01,"timestamp":"2026-01-01T00:00:00Z"},"consecutive-failures":3,"total-failures":3,"total-restarts":1,"last-state-change":"2026-01-01T00:00:00Z"}
]}`

const metricsBody = `# HELP go_goroutines Number of goroutines.
go_goroutines 12
# HELP radvsup_announcing Whether radvd is announcing.
radvsup_announcing{interface="veth0"} 1
radvsup_daemon_starts_total{interface="veth0"} 2
`

func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statusBody))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(readyBody))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(metricsBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	return NewCLI(NewClient(srv.URL), srv.URL, &out), &out
}

func TestShowRadvd(t *testing.T) {
	cli, out := newTestCLI(t)
	require.NoError(t, cli.processCommand("show radvd"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"INTERFACE", "NETNS", "STATE", "PID", "PREFIXES"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"eth1.100", "dataplane", "stopped", "-", "-"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"veth0", "-", "announcing", "4242", "2001:db8:0:1::/64,2001:db8:0:2::/64"}, strings.Fields(lines[2]))
	assert.Equal(t, "eth1.100: config write failed: read-only file system", lines[3])
}

func TestShowRadvdInterfaceJSON(t *testing.T) {
	cli, out := newTestCLI(t)
	require.NoError(t, cli.processCommand("show radvd interface veth0 format json"))
	assert.Contains(t, out.String(), `"pid": 4242`)
	assert.NotContains(t, out.String(), "eth1.100")

	err := cli.processCommand("show radvd interface veth9")
	assert.EqualError(t, err, "interface veth9 is not supervised")
}

func TestShowWatchdogNotReady(t *testing.T) {
	cli, out := newTestCLI(t)
	require.NoError(t, cli.processCommand("show watchdog"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Status: not_ready", lines[0])
	assert.Equal(t, []string{"radvd:veth0", "down", "3", "1", "-", "radvd", "pid", "4242", "not", "running"}, strings.Fields(lines[2]))
}

func TestShowMetricsFiltersSeries(t *testing.T) {
	cli, out := newTestCLI(t)
	require.NoError(t, cli.processCommand("show metrics"))
	assert.Equal(t, `radvsup_announcing{interface="veth0"} 1
radvsup_daemon_starts_total{interface="veth0"} 2
`, out.String())
}

func TestCommandErrors(t *testing.T) {
	cli, _ := newTestCLI(t)

	tests := []struct {
		line string
		err  string
	}{
		{"bogus", "unrecognized command"},
		{"show", "incomplete command"},
		{"show radvd format", "format requires a value"},
		{"show radvd format xml", "invalid format 'xml', expected one of: cli, json"},
		{"show radvd colour red", "unexpected argument 'colour'"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.EqualError(t, cli.processCommand(tt.line), tt.err)
		})
	}
}

func TestExitStopsLoop(t *testing.T) {
	cli, _ := newTestCLI(t)
	require.NoError(t, cli.processCommand("quit"))
	assert.False(t, cli.running)
}

func TestHelp(t *testing.T) {
	cli, out := newTestCLI(t)
	require.NoError(t, cli.processCommand("show ?"))
	assert.Contains(t, out.String(), "radvd")
	assert.Contains(t, out.String(), "watchdog")

	out.Reset()
	require.NoError(t, cli.processCommand("show radvd format ?"))
	assert.Equal(t, "\n  cli\n  json\n\n", out.String())
}

func TestCompletions(t *testing.T) {
	tree := NewCommandTree()
	registerCommands(tree)

	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"show"}},
		{"sh", []string{"show"}},
		{"show ", []string{"radvd", "watchdog", "metrics"}},
		{"show r", []string{"radvd"}},
		{"show radvd ", []string{"interface", "format"}},
		{"show radvd format ", []string{"cli", "json"}},
		{"show radvd format j", []string{"json"}},
		{"show radvd interface ", nil},
		{"show radvd format json ", []string{"interface"}},
		{"bogus ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.GetCompletions(tt.input))
		})
	}
}

func TestCompleterReturnsSuffix(t *testing.T) {
	tree := NewCommandTree()
	registerCommands(tree)
	tc := &treeCompleter{tree: tree}

	line := []rune("show wat")
	got, length := tc.Do(line, len(line))
	assert.Equal(t, 3, length)
	assert.Equal(t, [][]rune{[]rune("chdog ")}, got)
}

func TestNewClientAddsScheme(t *testing.T) {
	assert.Equal(t, "http://localhost:9090", NewClient("localhost:9090").base)
	assert.Equal(t, "https://mon.example:9443", NewClient("https://mon.example:9443/").base)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/veesix-networks/radvsup/pkg/version"
)

type CLI struct {
	client      *Client
	serverAddr  string
	out         io.Writer
	rl          *readline.Instance
	running     bool
	tree        *CommandTree
	currentLine string
}

func NewCLI(client *Client, serverAddr string, out io.Writer) *CLI {
	cli := &CLI{
		client:     client,
		serverAddr: serverAddr,
		out:        out,
		running:    true,
		tree:       NewCommandTree(),
	}
	registerCommands(cli.tree)
	return cli
}

func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:              prompt,
		HistoryFile:         os.ExpandEnv("$HOME/.radvsupctl_history"),
		AutoComplete:        c.buildCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		FuncFilterInputRune: c.filterInputWithHelp,
		Listener:            c,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer c.rl.Close()
	c.out = c.rl.Stdout()

	c.printBanner()

	for c.running {
		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					break
				}
				continue
			} else if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.processCommand(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	return nil
}

func (c *CLI) Stop() {
	c.running = false
}

func (c *CLI) printBanner() {
	fmt.Fprintln(c.out, "=====================================")
	fmt.Fprintln(c.out, "    radvsup Interactive CLI")
	fmt.Fprintf(c.out, "    %s\n", version.Banner("radvsupctl"))
	fmt.Fprintln(c.out, "=====================================")
	fmt.Fprintf(c.out, "Connected to: %s\n", c.serverAddr)
	fmt.Fprintln(c.out, "Type '?' for available commands")
	fmt.Fprintln(c.out, "Type 'exit' or 'quit' to exit")
	fmt.Fprintln(c.out)
}

func (c *CLI) OnChange(line []rune, pos int, key rune) (newLine []rune, newPos int, ok bool) {
	c.currentLine = string(line)
	return nil, 0, false
}

func (c *CLI) filterInputWithHelp(r rune) (rune, bool) {
	if r == '?' {
		fmt.Fprint(c.out, "?\n")
		c.showInlineHelp(c.currentLine)
		c.rl.Write([]byte(c.currentLine))
		return 0, false
	}
	return filterInput(r)
}

func (c *CLI) showInlineHelp(input string) {
	if input == "" || strings.HasSuffix(input, " ") {
		c.tree.ShowHelp(c.out, strings.TrimSpace(input))
		return
	}

	completions := c.tree.GetCompletions(input)
	if len(completions) == 0 {
		c.tree.ShowHelp(c.out, input)
		return
	}
	fmt.Fprintln(c.out)
	for _, comp := range completions {
		fmt.Fprintf(c.out, "  %s\n", comp)
	}
	fmt.Fprintln(c.out)
}

func (c *CLI) processCommand(line string) error {
	switch line {
	case "exit", "quit":
		c.running = false
		return nil
	case "?", "help":
		c.tree.ShowHelp(c.out, "")
		return nil
	}

	if strings.HasSuffix(line, "?") {
		c.showInlineHelp(strings.TrimSuffix(line, "?"))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return c.tree.Execute(ctx, c, line)
}

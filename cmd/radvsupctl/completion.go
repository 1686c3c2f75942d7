package main

import (
	"github.com/chzyer/readline"
)

const prompt = "radvsup> "

func (c *CLI) buildCompleter() readline.AutoCompleter {
	return &treeCompleter{tree: c.tree}
}

type treeCompleter struct {
	tree *CommandTree
}

func (tc *treeCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	completions := tc.tree.GetCompletions(string(line[:pos]))
	if len(completions) == 0 {
		return nil, 0
	}

	start := pos
	for start > 0 && line[start-1] != ' ' {
		start--
	}
	partial := len(line[start:pos])

	result := make([][]rune, len(completions))
	for i, comp := range completions {
		result[i] = []rune(comp[partial:] + " ")
	}
	return result, partial
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

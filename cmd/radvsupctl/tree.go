package main

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type CommandHandler func(ctx context.Context, cli *CLI, args map[string]string) error

type ArgumentType int

const (
	// ArgKeyword takes one of a fixed set of values, e.g. "format json".
	ArgKeyword ArgumentType = iota
	// ArgKeywordWithValue takes free-form input, e.g. "interface veth0".
	ArgKeywordWithValue
)

type Argument struct {
	Name        string
	Description string
	Type        ArgumentType
	Values      []string
}

type CommandNode struct {
	Name        string
	Description string
	Handler     CommandHandler
	Children    []*CommandNode
	Arguments   []*Argument
}

type CommandTree struct {
	root *CommandNode
}

func NewCommandTree() *CommandTree {
	return &CommandTree{
		root: &CommandNode{Name: "root"},
	}
}

func (t *CommandTree) AddRoot(path []string, description string) {
	current := t.root
	for _, part := range path {
		child := current.child(part)
		if child == nil {
			child = &CommandNode{Name: part, Description: description}
			current.Children = append(current.Children, child)
		} else if child.Description == "" {
			child.Description = description
		}
		current = child
	}
}

func (t *CommandTree) AddCommand(path []string, description string, handler CommandHandler, args ...*Argument) {
	current := t.root
	for _, part := range path {
		child := current.child(part)
		if child == nil {
			child = &CommandNode{Name: part}
			current.Children = append(current.Children, child)
		}
		current = child
	}
	current.Description = description
	current.Handler = handler
	current.Arguments = args
}

func (n *CommandNode) child(name string) *CommandNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *CommandNode) argument(name string) *Argument {
	for _, a := range n.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// walk follows tokens down the tree and returns the deepest node matched
// and the number of tokens consumed.
func (t *CommandTree) walk(tokens []string) (*CommandNode, int) {
	current := t.root
	for i, token := range tokens {
		child := current.child(token)
		if child == nil {
			return current, i
		}
		current = child
	}
	return current, len(tokens)
}

func (t *CommandTree) Execute(ctx context.Context, cli *CLI, input string) error {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return nil
	}

	node, depth := t.walk(tokens)
	if node.Handler == nil {
		if depth < len(tokens) {
			return fmt.Errorf("unrecognized command")
		}
		return fmt.Errorf("incomplete command")
	}

	args, err := parseArguments(node, tokens[depth:])
	if err != nil {
		return err
	}
	return node.Handler(ctx, cli, args)
}

func parseArguments(cmd *CommandNode, tokens []string) (map[string]string, error) {
	args := make(map[string]string)
	for i := 0; i < len(tokens); i += 2 {
		arg := cmd.argument(tokens[i])
		if arg == nil {
			return nil, fmt.Errorf("unexpected argument '%s'", tokens[i])
		}
		if i+1 >= len(tokens) {
			return nil, fmt.Errorf("%s requires a value", arg.Name)
		}
		value := tokens[i+1]
		if arg.Type == ArgKeyword && !contains(arg.Values, value) {
			return nil, fmt.Errorf("invalid %s '%s', expected one of: %s", arg.Name, value, strings.Join(arg.Values, ", "))
		}
		args[arg.Name] = value
	}
	return args, nil
}

func (t *CommandTree) GetCompletions(input string) []string {
	tokens := strings.Fields(input)
	endsWithSpace := len(input) > 0 && input[len(input)-1] == ' '

	prefix := ""
	if !endsWithSpace && len(tokens) > 0 {
		prefix = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
	}

	node, depth := t.walk(tokens)
	argTokens := tokens[depth:]

	var candidates []string
	switch {
	case len(argTokens) == 0 && node.Handler == nil:
		for _, child := range node.Children {
			candidates = append(candidates, child.Name)
		}
	case node.Handler == nil:
		return nil
	case len(argTokens)%2 == 1:
		arg := node.argument(argTokens[len(argTokens)-1])
		if arg == nil || arg.Type != ArgKeyword {
			return nil
		}
		candidates = arg.Values
	default:
		for _, child := range node.Children {
			candidates = append(candidates, child.Name)
		}
		used := make(map[string]bool)
		for i := 0; i < len(argTokens); i += 2 {
			used[argTokens[i]] = true
		}
		for _, arg := range node.Arguments {
			if !used[arg.Name] {
				candidates = append(candidates, arg.Name)
			}
		}
	}

	var completions []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			completions = append(completions, c)
		}
	}
	return completions
}

func (t *CommandTree) ShowHelp(w io.Writer, input string) {
	tokens := strings.Fields(input)
	node, depth := t.walk(tokens)
	argTokens := tokens[depth:]

	if len(argTokens)%2 == 1 && node.Handler != nil {
		if arg := node.argument(argTokens[len(argTokens)-1]); arg != nil {
			fmt.Fprintln(w)
			if arg.Type == ArgKeyword {
				for _, val := range arg.Values {
					fmt.Fprintf(w, "  %s\n", val)
				}
			} else {
				fmt.Fprintf(w, "  <value>              %s\n", arg.Description)
			}
			fmt.Fprintln(w)
			return
		}
	}

	fmt.Fprintln(w)
	for _, child := range node.Children {
		fmt.Fprintf(w, "  %-20s %s\n", child.Name, child.Description)
	}
	if node.Handler != nil {
		for _, arg := range node.Arguments {
			fmt.Fprintf(w, "  %-20s %s\n", arg.Name, arg.Description)
		}
		fmt.Fprintln(w, "  <cr>")
	}
	fmt.Fprintln(w)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

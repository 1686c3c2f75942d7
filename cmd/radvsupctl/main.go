package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

var serverAddr = flag.String("server", "localhost:9090", "radvsupd monitoring address")

func main() {
	flag.Parse()

	client := NewClient(*serverAddr)
	cli := NewCLI(client, *serverAddr, os.Stdout)

	if flag.NArg() > 0 {
		if err := cli.processCommand(strings.Join(flag.Args(), " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cli.Stop()
		os.Exit(0)
	}()

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/LexatoBR/lexato-extension-sub005/pkg/capture"
)

func runHash(args []string) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var name string
	var componentType string
	var inPath string
	fs.StringVar(&name, "name", "", "component name")
	fs.StringVar(&componentType, "type", "", "component type")
	fs.StringVar(&inPath, "in", "", "input file path")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if name == "" || componentType == "" || inPath == "" {
		fmt.Fprintln(os.Stderr, "hash requires --name, --type and --in")
		return 1
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		return 1
	}

	component := capture.HashComponent(name, componentType, data)
	payload, err := json.MarshalIndent(component, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal component: %v\n", err)
		return 1
	}
	fmt.Println(string(payload))
	return 0
}

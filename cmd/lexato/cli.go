package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "certify":
		return runCertify(args[2:])
	case "hash":
		return runHash(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "lexato"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s certify --manifest <capture.json> [--storage <standard|premium_5y|premium_10y|premium_20y>] [--backend <url>] [--validation <url>] [--out <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s hash --name <component> --type <type> --in <file>\n", name)
}

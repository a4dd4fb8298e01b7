package main

import (
	"fmt"
	"os"

	"github.com/kamatealif/shelf-sage/cmd/shelf-sage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

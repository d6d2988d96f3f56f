package main

import (
	"fmt"
	"os"

	"docmig"
)

func main() {
	if err := docmig.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

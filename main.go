// Package main provides the entry point for cachesim.
// cachesim simulates a set-associative cache with LRU replacement.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesim - set-associative cache simulator")
	fmt.Println("Cross-checked against the Akita cache directory")
	fmt.Println("")
	fmt.Println("Usage: cachesim [command] [flags]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  interactive  Menu-driven simulation (default)")
	fmt.Println("  run          Simulate an address file")
	fmt.Println("  geometry     Print the address bit widths")
	fmt.Println("  verify       Compare against the reference model")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}

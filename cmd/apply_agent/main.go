// Package main provides the apply-agent command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apply_agent",
	Short: "Adaptive job application form filler",
	Long:  "apply_agent opens job postings in Chrome, fills multi-step application forms from a learned answer cache and an LLM oracle, and records the outcome of every attempt.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// PromptLab - local LLM evaluation workbench.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "promptlab",
		Short: "Interactive evaluation workbench for locally hosted language models",
		Long: `PromptLab streams prompts to a local Ollama-compatible backend, measures
latency and throughput, and records every completed exchange as an
annotatable experiment for comparison and export.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newModelsCmd())
	root.AddCommand(newExportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

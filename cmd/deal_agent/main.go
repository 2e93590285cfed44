// Package main provides the deal_agent CLI, which turns a product into a
// deals blog post.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/deal-poster/internal/config"
	"github.com/jonathan/deal-poster/internal/logx"
)

var rootCmd = &cobra.Command{
	Use:           "deal_agent",
	Short:         "Deals blog post generator",
	Long:          "deal_agent resolves a product through the vendor API, a product page or hand-entered values, writes a Markdown post with front-matter and optionally announces it on Telegram.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logx.Init(logx.Options{Verbose: verbose, Out: cmd.ErrOrStderr()})

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("out") {
			loaded.OutputDir = outputDir
		}
		cfg = loaded
		return nil
	},
}

var (
	configPath string
	outputDir  string
	verbose    bool

	// cfg is set by the root pre-run hook.
	cfg *config.Config
	// now is the clock used for post timestamps.
	now = time.Now
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON5 config file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", "_posts", "Directory posts are written to")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging and product summaries")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command wordcount counts word occurrences in parallel and runs the
// service processes around the counter.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/config"
	"github.com/nikhilbhutani/wordcount/internal/graph"
	"github.com/nikhilbhutani/wordcount/internal/logging"
	"github.com/nikhilbhutani/wordcount/internal/occurrence"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "wordcount"
)

const demoText = "Ciao mi chiamo Michele Maione e sono un informatico e sono nato a Napoli e sono bello"

type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Parallel word-occurrence counter",
		Long: `wordcount splits a text into whitespace-delimited tokens, partitions them
across one worker per available CPU, and sums the exact matches of a word.

Without a subcommand it runs a short demo: a breadth-first search over a
small graph followed by two counts over a sample sentence.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file (overrides WORDCOUNT_CONFIG)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		countCmd(&g),
		bfsCmd(),
		serveCmd(&g),
		workerCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func runDemo(w io.Writer) error {
	g := graph.New()
	g.AddEdge(1, 5)
	g.AddEdge(1, 6)
	g.AddEdge(2, 3)

	t, err := g.BFS(1)
	if err != nil {
		return err
	}
	fmt.Fprint(w, t)

	for _, word := range []string{"sono", "Napoli"} {
		fmt.Fprintf(w, "%s: %d\n", word, occurrence.Count(demoText, word))
	}
	return nil
}

// setup loads configuration and builds the logger shared by subcommands.
func (g *globalFlags) setup() (*config.Config, *zap.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

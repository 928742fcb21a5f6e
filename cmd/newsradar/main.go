package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsradar",
		Short: "Deduplicate, cluster, and rank financial news headlines by hotness",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(collectCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(hotCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch configured RSS feeds into the article store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect()
		},
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run the dedup/cluster/hotness pipeline over stored articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze()
		},
	}
}

func hotCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
		csvPath    string
	)

	cmd := &cobra.Command{
		Use:   "hot",
		Short: "Show the hottest story clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHot(jsonOutput, limit, csvPath)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows to show (default: pipeline top_k)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the ranking to a CSV file")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

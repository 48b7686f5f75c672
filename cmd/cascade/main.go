package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxhq/cascade/core"
	"github.com/oxhq/cascade/internal/types"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cascade",
		Short: "Multi-tier code intelligence search and indexing engine",
	}

	var workspaceRoot string
	rootCmd.PersistentFlags().StringVar(&workspaceRoot, "root", ".", "workspace root directory")

	rootCmd.AddCommand(
		newIndexCmd(&workspaceRoot),
		newSearchCmd(&workspaceRoot),
		newReferencesCmd(&workspaceRoot),
		newStatusCmd(&workspaceRoot),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cascade:", err)
		os.Exit(1)
	}
}

func newIndexCmd(root *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the workspace, populating the Symbol Database and inverted index",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := core.Open(*root)
			if err != nil {
				return err
			}
			defer engine.Close()

			start := time.Now()
			stats, err := engine.Index(cmd.Context(), force)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d files (%d symbols, %d relationships, %d identifiers, %d skipped) in %s\n",
				stats.FilesIndexed, stats.SymbolCount, stats.RelationshipCount, stats.IdentifierCount,
				stats.FilesSkipped, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "clear and fully rebuild the workspace's index")
	return cmd
}

func newSearchCmd(root *string) *cobra.Command {
	var (
		content  bool
		auto     bool
		language string
		kind     string
		glob     string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search symbols or file content in the indexed workspace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := core.Open(*root)
			if err != nil {
				return err
			}
			defer engine.Close()

			q := strings.Join(args, " ")
			filters := types.Filters{Language: language, SymbolKind: kind, FileGlob: glob}

			if auto {
				hits, err := engine.Search(context.Background(), q, filters, limit)
				if err != nil {
					return err
				}
				for _, h := range hits {
					fmt.Printf("%-8s %-30s %s  (%.2f)\n", h.Source, h.Name, h.FilePath, h.Score)
				}
				return nil
			}

			if content {
				hits, err := engine.SearchContent(context.Background(), q, filters, limit)
				if err != nil {
					return err
				}
				for _, h := range hits {
					fmt.Printf("%s  (%.2f)\n", h.FilePath, h.Score)
				}
				return nil
			}

			hits, err := engine.SearchSymbols(context.Background(), q, filters, limit)
			if err != nil {
				return err
			}
			for _, h := range hits {
				fmt.Printf("%-10s %-30s %s:%d  (%.2f)\n", h.Kind, h.Name, h.FilePath, h.StartLine, h.Score)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&content, "content", false, "search file content instead of symbols")
	cmd.Flags().BoolVar(&auto, "auto", false, "classify query intent and dispatch accordingly, merging results for mixed intent")
	cmd.Flags().StringVar(&language, "language", "", "filter by language")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by symbol kind")
	cmd.Flags().StringVar(&glob, "glob", "", "filter results by file glob")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}

func newReferencesCmd(root *string) *cobra.Command {
	var symbolID string
	cmd := &cobra.Command{
		Use:   "references <symbol-name>",
		Short: "Find every known reference site for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := core.Open(*root)
			if err != nil {
				return err
			}
			defer engine.Close()

			hits, err := engine.FindReferences(symbolID, args[0])
			if err != nil {
				return err
			}
			for _, h := range hits {
				fmt.Printf("%-8s %s:%d:%d  (%.2f, %s)\n", h.Kind, h.FilePath, h.Line, h.Col, h.Confidence, h.Source)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&symbolID, "symbol-id", "", "restrict to a specific symbol id")
	return cmd
}

func newStatusCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which search tiers are ready for this workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := core.Open(*root)
			if err != nil {
				return err
			}
			defer engine.Close()

			fmt.Printf("workspace:       %s\n", engine.Identity.Root)
			fmt.Printf("symbol database: %v\n", engine.Flags.SymbolDatabaseReady())
			fmt.Printf("inverted index:  %v\n", engine.Flags.InvertedIndexReady())
			fmt.Printf("embeddings:      %v\n", engine.Flags.EmbeddingReady())
			return nil
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/graph"
)

var (
	graphOutputFlag string
	graphFormatFlag string
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [root]",
	Short: "Export the structure graph of a project",
	Long: `Graph builds (or reuses) the project index and derives a directed graph:
namespaces contain types, components decorate classes and render templates,
stylesheets style components, templates use components through custom tags
and types inherit from their base types.

Examples:
  # Render with Graphviz
  docgen graph ./web --family angular | dot -Tsvg > structure.svg

  # Plain JSON nodes and edges
  docgen graph --format json --output structure.json
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addFamilyFlags(graphCmd)
	graphCmd.Flags().StringVarP(&graphOutputFlag, "output", "o", "-", "output file, - for stdout")
	graphCmd.Flags().StringVar(&graphFormatFlag, "format", "dot", "output format: dot or json")
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	s, err := openSession(sessionParams{
		Root:    rootArg(args),
		Family:  familyFlag,
		Ignore:  ignoreFlag,
		NoCache: noCacheFlag,
		Logger:  newLogger(cmd.ErrOrStderr(), verbose),
	})
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := s.scan(ctx)
	if err != nil {
		return err
	}
	structure, err := graph.Build(out.Index)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}

	w := cmd.OutOrStdout()
	if graphOutputFlag != "-" {
		f, err := os.Create(graphOutputFlag)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", graphOutputFlag, err)
		}
		defer f.Close()
		w = f
	}
	if err := writeGraph(w, structure, graphFormatFlag); err != nil {
		return err
	}
	s.logger.Info("graph written", "nodes", len(structure.Nodes()), "edges", len(structure.Edges()))
	return nil
}

func writeGraph(w io.Writer, s *graph.Structure, format string) error {
	switch format {
	case "dot":
		return s.WriteDOT(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s.Data()); err != nil {
			return fmt.Errorf("failed to encode graph: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported graph format %q (want dot or json)", format)
	}
}

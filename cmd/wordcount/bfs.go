package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/wordcount/internal/graph"
)

func bfsCmd() *cobra.Command {
	var (
		edges  []string
		source int
		target int
	)

	cmd := &cobra.Command{
		Use:     "bfs",
		Short:   "Breadth-first search over a directed graph",
		Example: `  wordcount bfs --edge 1:5 --edge 1:6 --edge 2:3 --source 1 --target 6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := graph.New()
			for _, e := range edges {
				from, to, err := parseEdge(e)
				if err != nil {
					return err
				}
				g.AddEdge(from, to)
			}

			t, err := g.BFS(source)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, t)
			if cmd.Flags().Changed("target") {
				path := t.Path(target)
				if path == nil {
					fmt.Fprintf(out, "no path from %d to %d\n", source, target)
					return nil
				}
				fmt.Fprintf(out, "path: %s\n", joinInts(path, " -> "))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&edges, "edge", "e", nil, "Directed edge as from:to (repeatable)")
	cmd.Flags().IntVarP(&source, "source", "s", 0, "Source vertex")
	cmd.Flags().IntVarP(&target, "target", "t", 0, "Print the path to this vertex")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func parseEdge(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid edge %q: want from:to", s)
	}
	from, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid edge %q: %w", s, err)
	}
	to, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid edge %q: %w", s, err)
	}
	return from, to, nil
}

func joinInts(vs []int, sep string) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}

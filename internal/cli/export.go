package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/plexus/internal/arch"
	"github.com/roach88/plexus/internal/export"
	"github.com/roach88/plexus/internal/fixture"
	"github.com/roach88/plexus/internal/runtime"
	"github.com/roach88/plexus/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out     string
	Session string
	DataDir string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <fixture.yaml>",
		Short: "Materialize a fixture and export it as Graphviz DOT",
		Long: `Materialize a graph fixture in a fresh execution context and write
the reachable graph as Graphviz DOT.

With --session the materialized graph is also saved durably into that
session's store, so a later inspect (or a fresh context on the same
session) can see it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write DOT to file instead of stdout")
	cmd.Flags().StringVar(&opts.Session, "session", "", "persist the materialized graph into this session")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", ".", "directory holding session databases")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	g, err := fixture.Load(path)
	if err != nil {
		formatter.Error("E_EXPORT", err.Error(), nil)
		return WrapExitError(ExitFailure, "fixture invalid", err)
	}

	reg := runtime.NewRegistry()
	fixture.Register(reg)

	var ctxOpts []runtime.Option
	if opts.Session != "" {
		ctxOpts = append(ctxOpts, runtime.WithShelfOpener(func(session string) (runtime.Shelf, error) {
			return store.Open(store.SessionPath(opts.DataDir, session))
		}))
	}
	x := runtime.NewContext(reg, ctxOpts...)
	if err := x.Init(cmd.Context(), opts.Session); err != nil {
		return WrapExitError(ExitCommandError, "init context", err)
	}
	defer x.Reset(cmd.Context())

	nodes, err := fixture.Materialize(cmd.Context(), x, g)
	if err != nil {
		formatter.Error("E_EXPORT", err.Error(), nil)
		return WrapExitError(ExitFailure, "materialize fixture", err)
	}
	formatter.VerboseLog("materialized %d node(s) from fixture %s", len(nodes), g.Name)

	if opts.Session != "" {
		// Mark the whole materialized graph durable so it survives the
		// deferred Reset.
		for _, n := range g.Nodes {
			if err := x.SaveObj(cmd.Context(), nodes[n.ID], true); err != nil {
				return WrapExitError(ExitCommandError, "save graph", err)
			}
		}
		// Root attachments live on the root's OUT adjacency, so the root
		// must be in the source set or its edges would never be saved.
		sources := allNodes(g, nodes)
		if len(g.Roots) > 0 {
			sources = append([]arch.NodeArchitype{x.Root()}, sources...)
		}
		edges, err := runtime.EdgeRef(cmd.Context(), x, sources, nil, arch.DirOut, nil, true)
		if err != nil {
			return WrapExitError(ExitCommandError, "save graph", err)
		}
		for _, e := range edges {
			if err := x.SaveObj(cmd.Context(), e, true); err != nil {
				return WrapExitError(ExitCommandError, "save graph", err)
			}
		}
	}

	start := exportStart(x, g, nodes)
	if start == nil {
		formatter.Error("E_EXPORT", "fixture has no nodes", nil)
		return WrapExitError(ExitFailure, "empty fixture", nil)
	}

	dot, err := export.DOT(cmd.Context(), x, start)
	if err != nil {
		return WrapExitError(ExitCommandError, "export DOT", err)
	}

	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, []byte(dot), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write DOT file", err)
		}
		return formatter.Success(fmt.Sprintf("wrote %s", opts.Out))
	}

	fmt.Fprint(cmd.OutOrStdout(), dot)
	return nil
}

// exportStart picks the traversal origin: the session root when the
// fixture attaches nodes to it, otherwise the first declared node.
func exportStart(x *runtime.Context, g *fixture.Graph, nodes map[string]arch.NodeArchitype) arch.NodeArchitype {
	if len(g.Roots) > 0 {
		return x.Root()
	}
	if len(g.Nodes) > 0 {
		return nodes[g.Nodes[0].ID]
	}
	return nil
}

func allNodes(g *fixture.Graph, nodes map[string]arch.NodeArchitype) []arch.NodeArchitype {
	out := make([]arch.NodeArchitype, 0, len(nodes))
	for _, n := range g.Nodes {
		out = append(out, nodes[n.ID])
	}
	return out
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/plexus/internal/arch"
	"github.com/roach88/plexus/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Session string
	DataDir string
	DB      string
}

// AnchorSummary is one row of inspect output.
type AnchorSummary struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Type   string `json:"type"`
	Out    int    `json:"out_edges"`
	In     int    `json:"in_edges"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the durable anchors in a session store",
		Long: `Open a session database read-only and list every stored anchor:
identifier, kind, type, and structural summary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session whose store to inspect")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", ".", "directory holding session databases")
	cmd.Flags().StringVar(&opts.DB, "db", "", "inspect an explicit database file instead of a session")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	path := opts.DB
	if path == "" {
		if opts.Session == "" {
			return WrapExitError(ExitCommandError, "inspect", fmt.Errorf("one of --session or --db is required"))
		}
		path = store.SessionPath(opts.DataDir, opts.Session)
	}
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "session database not found", err)
	}

	s, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open session database", err)
	}
	defer s.Close()

	ids, err := s.ListIDs(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "list anchors", err)
	}

	summaries := make([]AnchorSummary, 0, len(ids))
	for _, id := range ids {
		rec, ok, err := s.Get(cmd.Context(), id)
		if err != nil {
			return WrapExitError(ExitCommandError, "read anchor", err)
		}
		if !ok {
			continue
		}
		summaries = append(summaries, AnchorSummary{
			ID:     rec.ID,
			Kind:   arch.Kind(rec.Kind).String(),
			Type:   rec.Type,
			Out:    len(rec.OutEdges),
			In:     len(rec.InEdges),
			Source: rec.Source,
			Target: rec.Target,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(summaries)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d anchor(s) in %s\n", len(summaries), path)
	for _, a := range summaries {
		switch a.Kind {
		case "edge":
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s/%s  %s -> %s\n", a.ID, a.Kind, a.Type, a.Source, a.Target)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s/%s  out=%d in=%d\n", a.ID, a.Kind, a.Type, a.Out, a.In)
		}
	}
	return nil
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/plexus/internal/fixture"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Fixture string `json:"fixture"`
	Nodes   int    `json:"nodes"`
	Edges   int    `json:"edges"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <fixture.yaml>",
		Short: "Validate a graph fixture without materializing it",
		Long: `Validate a YAML graph fixture against the fixture schema.

Performs schema validation and node-reference checks without building
the graph. Faster than export for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	g, err := fixture.Load(path)
	if err != nil {
		formatter.Error("E_VALIDATE", err.Error(), nil)
		return WrapExitError(ExitFailure, "fixture invalid", err)
	}

	// Reference checks beyond schema shape: every edge and root must name
	// a declared node.
	declared := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		declared[n.ID] = struct{}{}
	}
	for _, e := range g.Edges {
		if _, ok := declared[e.From]; !ok {
			formatter.Error("E_VALIDATE", "edge references unknown node "+e.From, nil)
			return WrapExitError(ExitFailure, "fixture invalid", nil)
		}
		if _, ok := declared[e.To]; !ok {
			formatter.Error("E_VALIDATE", "edge references unknown node "+e.To, nil)
			return WrapExitError(ExitFailure, "fixture invalid", nil)
		}
	}
	for _, id := range g.Roots {
		if _, ok := declared[id]; !ok {
			formatter.Error("E_VALIDATE", "root references unknown node "+id, nil)
			return WrapExitError(ExitFailure, "fixture invalid", nil)
		}
	}

	formatter.VerboseLog("fixture %s: %d node(s), %d edge(s)", g.Name, len(g.Nodes), len(g.Edges))
	return formatter.Success(ValidationResult{
		Valid:   true,
		Fixture: g.Name,
		Nodes:   len(g.Nodes),
		Edges:   len(g.Edges),
	})
}

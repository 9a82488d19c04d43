package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"object-mapper/internal/config"
)

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check DEFINITIONS",
		Short: "Validate a definition file",
		Long: `Validate a definition file and print its errors and warnings.

Shapes are not known to the command line, so field names are not checked;
everything else is: mapping references, key paths, patterns, contexts, date
formats and conversion categories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args[0])
		},
	}
}

func (a *app) runCheck(cmd *cobra.Command, path string) error {
	out := printer{w: cmd.OutOrStdout()}

	f, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	res := config.Validate(f, dictionaryShapes(f))
	out.diagnostics(res)

	if res.HasErrors() {
		return fmt.Errorf("%s: %d errors", path, len(res.Errors))
	}

	out.success("%s: %d mappings, %d provider entries, %d warnings",
		path, len(f.Mappings), len(f.Provider), len(res.Warnings))

	return nil
}

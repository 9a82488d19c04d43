package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"object-mapper/internal/config"
	"object-mapper/internal/parser"
)

func newInverseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inverse DEFINITIONS MAPPING",
		Short: "Print the serialization mapping derived from a mapping",
		Long: `Print the inverse of a named object mapping as a definition file. Transient
rules and relationships through dynamic mappings are left out.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInverse(cmd, args[0], args[1])
		},
	}
}

func (a *app) runInverse(cmd *cobra.Command, path, name string) error {
	_, defs, err := loadDefinitions(path)
	if err != nil {
		return err
	}

	m, ok := defs.ObjectMapping(name)
	if !ok {
		return fmt.Errorf("object mapping %q not found", name)
	}

	exported := config.Export(m.Inverse())

	data, err := config.Marshal(exported)
	if err != nil {
		return err
	}

	// JSON output follows the YAML field names.
	if a.settings.Format == FormatJSON {
		v, err := parser.YAML{}.Parse(data)
		if err != nil {
			return err
		}

		if data, err = (parser.JSON{Indent: "  "}).Marshal(v); err != nil {
			return err
		}

		data = append(data, '\n')
	}

	_, err = cmd.OutOrStdout().Write(data)

	return err
}

package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"object-mapper/internal/logger"
)

// Version is printed by --version.
var Version = "0.1.0"

type app struct {
	configPath string
	settings   *Settings
	log        *slog.Logger
	closer     io.Closer
}

// NewRootCommand returns the object-mapper command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "object-mapper",
		Short:   "Map JSON and YAML payloads with declarative mapping definitions",
		Version: Version,
		Long: `object-mapper maps JSON and YAML payloads onto objects described by YAML
mapping definitions, validates definition files and prints the inverse
(serialization) mappings derived from them.`,
		Example: `  # Map a payload with the provider registrations of a definition file
  $ object-mapper map people.json -d mappings.yaml

  # Map the value at a key path with one named mapping, as YAML
  $ object-mapper map people.json -d mappings.yaml -m Person -k data.people --format yaml

  # Load a resource and map the response
  $ object-mapper fetch /people/7 --base-url https://api.example.com -d mappings.yaml

  # Check a definition file
  $ object-mapper check mappings.yaml

  # Print the serialization mapping of Person
  $ object-mapper inverse mappings.yaml Person`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}

			return nil
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "settings file (default ./object-mapper.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("log-output", "", "log destination: stderr, stdout or a file path")
	flags.String("format", "", "output format: json, yaml or dump")
	flags.Bool("no-color", false, "disable colored output")

	root.AddCommand(newMapCommand(a), newFetchCommand(a), newCheckCommand(a), newInverseCommand(a))

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	settings, err := LoadSettings(cmd, a.configPath)
	if err != nil {
		return err
	}

	log, closer, err := logger.New(settings.Log)
	if err != nil {
		return err
	}

	if settings.NoColor {
		color.NoColor = true
	}

	a.settings, a.log, a.closer = settings, log, closer

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(logger.WithContext(ctx, log))

	return nil
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"object-mapper/internal/logger"
	"object-mapper/internal/mapper"
	"object-mapper/internal/mapping"
	"object-mapper/internal/parser"
	"object-mapper/internal/payload"
)

type mapOptions struct {
	definitions string
	mapping     string
	keyPath     string
	mimeType    string
	context     string
}

func newMapCommand(a *app) *cobra.Command {
	var opts mapOptions

	cmd := &cobra.Command{
		Use:   "map PAYLOAD",
		Short: "Map a JSON or YAML payload file",
		Long: `Map a payload file with a definition file.

Without --mapping the provider registrations of the chosen context decide
which key paths are mapped. The result is printed keyed by key path; a
payload mapped as a whole prints on its own. Mapping errors are reported on
stderr and make the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMap(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.definitions, "definitions", "d", "", "YAML definition file (required)")
	cmd.Flags().StringVarP(&opts.mapping, "mapping", "m", "", "map with this named mapping instead of the provider")
	cmd.Flags().StringVarP(&opts.keyPath, "key-path", "k", "", "with --mapping, map only the value at this key path")
	cmd.Flags().StringVar(&opts.mimeType, "mime", "", "payload MIME type (default from the file extension)")
	cmd.Flags().StringVar(&opts.context, "context", "objects", "provider context: objects, errors or pagination")
	_ = cmd.MarkFlagRequired("definitions")

	return cmd
}

func (a *app) runMap(cmd *cobra.Command, payloadPath string, opts mapOptions) error {
	log := logger.FromContext(cmd.Context())

	_, defs, err := loadDefinitions(opts.definitions)
	if err != nil {
		return err
	}

	ctx, err := mapping.ParseContext(opts.context)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(payloadPath)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	parsers := parser.NewRegistry()

	source, err := parsers.Parse(payloadMIMEType(payloadPath, opts.mimeType), data)
	if err != nil {
		return err
	}

	var performOpts []mapper.PerformOption

	if opts.mapping != "" {
		def, ok := defs.Mapping(opts.mapping)
		if !ok {
			return fmt.Errorf("mapping %q not found", opts.mapping)
		}

		performOpts = append(performOpts, mapper.WithMapping(def), mapper.WithKeyPath(opts.keyPath))
	}

	m := mapper.New(mapper.Options{Provider: defs.Provider, Context: ctx, Logger: log})

	res, err := m.Perform(source, performOpts...)
	if err != nil {
		return err
	}

	return a.finishResult(cmd, res)
}

func payloadMIMEType(path, explicit string) string {
	if explicit != "" {
		return explicit
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parser.MIMEYAML
	default:
		return parser.MIMEJSON
	}
}

func (a *app) writeResult(w io.Writer, res *mapper.Result) error {
	if a.settings.Format == FormatDump {
		spew.Fdump(w, res.Dictionary())
		return nil
	}

	out, err := resultValue(res)
	if err != nil {
		return err
	}

	var p parser.Parser = parser.JSON{Indent: "  "}
	if a.settings.Format == FormatYAML {
		p = parser.YAML{}
	}

	data, err := p.Marshal(out)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return err
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}

	return err
}

// resultValue renders a result of dictionary objects as one payload value.
func resultValue(res *mapper.Result) (payload.Value, error) {
	keyPaths := res.KeyPaths()

	if len(keyPaths) == 1 && keyPaths[0] == "" {
		v, _ := res.Get("")
		return payload.FromAny(v)
	}

	obj := payload.NewObject()

	for _, kp := range keyPaths {
		v, _ := res.Get(kp)

		pv, err := payload.FromAny(v)
		if err != nil {
			return payload.Value{}, fmt.Errorf("key path %q: %w", kp, err)
		}

		obj.Set(kp, pv)
	}

	return payload.ObjectValue(obj), nil
}

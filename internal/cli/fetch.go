package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"object-mapper/internal/loader"
	"object-mapper/internal/logger"
	"object-mapper/internal/mapper"
	"object-mapper/internal/reqcache"
)

type fetchOptions struct {
	definitions string
	baseURL     string
	mapping     string
	keyPath     string
	cacheDir    string
	headers     []string
}

func newFetchCommand(a *app) *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch PATH",
		Short: "Load a resource over HTTP and map the response",
		Long: `Load a resource path relative to --base-url and map the response body with
the provider registrations of a definition file. Path patterns registered in
the file take precedence over key paths.

With --cache-dir responses are kept on disk and revalidated with
If-None-Match; a 304 answer is mapped from the cached body.`,
		Example: `  $ object-mapper fetch /people/7 --base-url https://api.example.com -d mappings.yaml
  $ object-mapper fetch /people -d mappings.yaml --base-url http://localhost:8080 \
      -H "Authorization: Bearer $TOKEN" --cache-dir ~/.cache/object-mapper`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.definitions, "definitions", "d", "", "YAML definition file (required)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "base URL resource paths are relative to (required)")
	cmd.Flags().StringVarP(&opts.mapping, "mapping", "m", "", "map with this named mapping instead of the provider")
	cmd.Flags().StringVarP(&opts.keyPath, "key-path", "k", "", "with --mapping, map only the value at this key path")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "keep responses in this directory")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, `request header as "Name: value", repeatable`)
	_ = cmd.MarkFlagRequired("definitions")
	_ = cmd.MarkFlagRequired("base-url")

	return cmd
}

func (a *app) runFetch(cmd *cobra.Command, path string, opts fetchOptions) error {
	log := logger.FromContext(cmd.Context())
	errOut := printer{w: cmd.ErrOrStderr()}

	_, defs, err := loadDefinitions(opts.definitions)
	if err != nil {
		return err
	}

	header := http.Header{}

	for _, h := range opts.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("malformed header %q, want \"Name: value\"", h)
		}

		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	clientOpts := loader.Options{
		BaseURL:  opts.baseURL,
		Provider: defs.Provider,
		Header:   header,
		Logger:   log,
	}

	if opts.cacheDir != "" {
		cache, err := reqcache.New(reqcache.Options{Policy: reqcache.PolicyPermanently, Dir: opts.cacheDir, Logger: log})
		if err != nil {
			return err
		}

		clientOpts.Cache = cache
	}

	client, err := loader.New(clientOpts)
	if err != nil {
		return err
	}

	var reqOpts []loader.RequestOption

	if opts.mapping != "" {
		def, ok := defs.Mapping(opts.mapping)
		if !ok {
			return fmt.Errorf("mapping %q not found", opts.mapping)
		}

		reqOpts = append(reqOpts, loader.WithMapping(def), loader.WithKeyPath(opts.keyPath))
	}

	resp, err := client.Load(cmd.Context(), path, reqOpts...)
	if err != nil {
		return err
	}

	if resp.FromCache {
		errOut.info("%s served from cache", path)
	}

	if resp.Result == nil {
		errOut.warning("%s: nothing mapped (status %d, %s)", path, resp.StatusCode, resp.MIMEType)
		return nil
	}

	return a.finishResult(cmd, resp.Result)
}

// finishResult prints a mapped result and reports its errors.
func (a *app) finishResult(cmd *cobra.Command, res *mapper.Result) error {
	if err := a.writeResult(cmd.OutOrStdout(), res); err != nil {
		return err
	}

	if d := res.Diagnostics(); len(d.Errors)+len(d.Warnings) > 0 {
		printer{w: cmd.ErrOrStderr()}.diagnostics(d)
	}

	if res.Err() != nil {
		return fmt.Errorf("%d mapping errors", len(res.Errors()))
	}

	return nil
}

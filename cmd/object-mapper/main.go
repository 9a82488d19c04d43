// Package main provides the CLI entrypoint for object-mapper.
//
// object-mapper maps JSON and YAML payloads with declarative mapping
// definitions:
//   - map: map a payload file with the registrations of a definition file
//   - check: validate a definition file
//   - inverse: print the serialization mapping derived from a mapping
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"object-mapper/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.Execute(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"object-mapper/internal/diagnostic"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// printer writes status lines for humans.
type printer struct {
	w io.Writer
}

func (p printer) success(format string, args ...any) {
	successColor.Fprintf(p.w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func (p printer) error(format string, args ...any) {
	errorColor.Fprintf(p.w, "✗ %s\n", fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	warningColor.Fprintf(p.w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func (p printer) info(format string, args ...any) {
	infoColor.Fprintf(p.w, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// diagnostics prints errors, then warnings, then infos.
func (p printer) diagnostics(d *diagnostic.Diagnostics) {
	for _, e := range d.Errors {
		p.error("%s", e.String())
	}

	for _, w := range d.Warnings {
		p.warning("%s", w.String())
	}

	for _, i := range d.Infos {
		p.info("%s", i.String())
	}
}

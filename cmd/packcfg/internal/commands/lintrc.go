package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/packcfg/internal/buildconfig"
)

type LintrcCmd struct {
	Output string `help:"file to write, stdout when empty" short:"o"`
}

func (c *LintrcCmd) Run(globals *Globals) error {
	if c.Output == "" {
		return c.write(os.Stdout, globals)
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.Output, err)
	}

	if err := c.write(f, globals); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func (c *LintrcCmd) write(w io.Writer, globals *Globals) error {
	proj, err := globals.load()
	if err != nil {
		return err
	}

	data, err := buildconfig.DefaultLintRules(proj.effective.Resolve).JSON()
	if err != nil {
		return fmt.Errorf("failed to encode lint rules: %w", err)
	}

	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

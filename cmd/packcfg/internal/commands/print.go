package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/packcfg/internal/buildconfig"
	"gopkg.in/yaml.v3"
)

type PrintCmd struct {
	Format      string `help:"output format" enum:"yaml,json" default:"yaml"`
	Fingerprint bool   `help:"print only the configuration fingerprint" default:"false"`
}

func (c *PrintCmd) Run(globals *Globals) error {
	return c.print(os.Stdout, globals)
}

func (c *PrintCmd) print(w io.Writer, globals *Globals) error {
	proj, err := globals.load()
	if err != nil {
		return err
	}

	if c.Fingerprint {
		_, err := fmt.Fprintln(w, proj.fingerprint)
		return err
	}

	exported, err := buildconfig.Export(proj.merged)
	if err != nil {
		return fmt.Errorf("failed to export configuration: %w", err)
	}

	switch c.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(exported)
	default:
		fmt.Fprintf(w, "# env: %s fingerprint: %s\n", globals.Env, proj.fingerprint)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(exported); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return enc.Close()
	}
}

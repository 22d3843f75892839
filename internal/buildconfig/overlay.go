package buildconfig

import (
	"fmt"
	"slices"
	"strings"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DevServerPort is the port the development server listens on.
const DevServerPort = 9001

var overlays = map[string]func() Config{
	EnvDevelopment: Development,
	EnvProduction:  Production,
}

// Overlay returns the overlay registered for env.
func Overlay(env string) (Config, error) {
	fn, ok := overlays[env]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownEnvironment, env, strings.Join(Environments(), ", "))
	}
	return fn(), nil
}

// Environments lists the registered environment names in sorted order.
func Environments() []string {
	names := make([]string, 0, len(overlays))
	for name := range overlays {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Development returns the keys the development build overrides.
func Development() Config {
	return Config{
		KeyMode: ModeDevelopment,
		KeyEnvironment: Config{
			KeyDevServer: Config{
				"contentBase":    OutputDir,
				"port":           DevServerPort,
				"host":           "localhost",
				"open":           true,
				"hot":            true,
				"compress":       false,
				"allowedOrigins": []string{},
			},
		},
	}
}

// Production returns the keys the production build overrides.
func Production() Config {
	return Config{
		KeyMode: ModeProduction,
		KeyOutput: Config{
			KeyOutputFilename: "[name]_[hash:8].js",
		},
		KeyPlugins: Plugins{
			CSSMinify{AssetNameRegExp: `\.css$`, Processor: "cssnano"},
			CleanOutput{},
		},
	}
}

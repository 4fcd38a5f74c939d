package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caffinitas/barker/loadgen"
)

var defaultContactPoints = []string{"127.0.0.1", "127.0.0.2"}

// contactPoints is a repeatable -c flag. The first explicit value replaces the defaults.
type contactPoints struct {
	values   []string
	explicit bool
}

func (c *contactPoints) String() string {
	if c == nil {
		return ""
	}

	return strings.Join(c.values, ",")
}

func (c *contactPoints) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty contact point")
	}

	if !c.explicit {
		c.values = nil
		c.explicit = true
	}

	c.values = append(c.values, value)

	return nil
}

type cliConfig struct {
	contactPoints []string
	load          loadgen.Config
	configFile    string
	debug         bool
	otel          bool
}

func parseFlags(args []string, output io.Writer) (cliConfig, error) {
	fs := flag.NewFlagSet("barker", flag.ContinueOnError)
	fs.SetOutput(output)

	points := &contactPoints{values: append([]string(nil), defaultContactPoints...)}
	defaults := loadgen.DefaultConfig()

	fs.Var(points, "c", "contact point host[:port] of one shard, repeatable")
	threads := fs.Int("t", defaults.Threads, "number of worker threads")
	bots := fs.Int("b", defaults.Bots, "number of bots")
	minDelay := fs.Int("min", int(defaults.DelayMin.Milliseconds()), "minimum delay between two activations of a bot in ms")
	maxDelay := fs.Int("max", int(defaults.DelayMax.Milliseconds()), "maximum delay between two activations of a bot in ms")
	configFile := fs.String("config", "", "optional config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	otelEnabled := fs.Bool("otel", false, "export traces and metrics to the configured OTLP endpoints")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}

	cfg := cliConfig{
		contactPoints: points.values,
		load: loadgen.Config{
			Threads:  *threads,
			Bots:     *bots,
			DelayMin: time.Duration(*minDelay) * time.Millisecond,
			DelayMax: time.Duration(*maxDelay) * time.Millisecond,
		},
		configFile: *configFile,
		debug:      *debug,
		otel:       *otelEnabled,
	}

	if err := cfg.load.Validate(); err != nil {
		return cliConfig{}, err
	}

	return cfg, nil
}

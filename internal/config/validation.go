package config

import (
	"strings"

	"github.com/Cyclone1070/mcpchat/internal/logging"
	"github.com/cockroachdb/errors"
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	// Provider validation
	switch c.Provider.Name {
	case ProviderGemini, ProviderAnthropic:
	default:
		errs = append(errs, "provider.name must be one of gemini, anthropic")
	}
	if c.Provider.MaxOutputTokens < 0 {
		errs = append(errs, "provider.max_output_tokens must be >= 0")
	}
	if t := c.Provider.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, "provider.temperature must be between 0 and 2")
	}

	// Agent validation
	if c.Agent.MaxIterations < 1 {
		errs = append(errs, "agent.max_iterations must be >= 1")
	}

	// Host validation
	if c.Host.CallTimeout < 0 {
		errs = append(errs, "host.call_timeout must be >= 0")
	}
	if c.Host.Command == "" && len(c.Host.Args) > 0 {
		errs = append(errs, "host.args requires host.command")
	}

	// Log validation
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, "log.level must be one of critical, error, warning, notice, info, debug, trace")
	}

	if len(errs) > 0 {
		return errors.Newf("config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

package config

import (
	"github.com/arthur-debert/stager/pkg/errors"
)

// Patch tools.
const (
	ToolBuiltin = "builtin"
	ToolCommand = "command"
)

// Config is the fully merged configuration.
type Config struct {
	Patch        Patch        `koanf:"patch"`
	Substitution Substitution `koanf:"substitution"`
	Extract      Extract      `koanf:"extract"`
	Staging      Staging      `koanf:"staging"`
}

// Patch selects and tunes the patch primitive.
type Patch struct {
	Tool    string `koanf:"tool"`
	Command string `koanf:"command"`
	// Fuzz is passed to the external tool; the builtin primitive ignores it.
	Fuzz int `koanf:"fuzz"`
}

// Substitution configures placeholder tokens in patch bodies.
type Substitution struct {
	TokenPrefix string            `koanf:"token_prefix"`
	TokenSuffix string            `koanf:"token_suffix"`
	Variables   map[string]string `koanf:"variables"`
}

type Extract struct {
	ExternalTools           []string `koanf:"external_tools"`
	MergeExtendedAttributes bool     `koanf:"merge_extended_attributes"`
	Verbose                 bool     `koanf:"verbose"`
	// Move relocates directory resources into the working tree instead of
	// copying them.
	Move bool `koanf:"move"`
}

// Staging configures where working trees are created.
type Staging struct {
	WorkRoot string `koanf:"work_root"`
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Patch.Tool {
	case ToolBuiltin:
	case ToolCommand:
		if c.Patch.Command == "" {
			return invalid("patch.command", "patch.command must name a program when patch.tool is %q", ToolCommand)
		}
	default:
		return invalid("patch.tool", "unknown patch tool %q", c.Patch.Tool)
	}
	if c.Patch.Fuzz < 0 {
		return invalid("patch.fuzz", "patch.fuzz must not be negative, got %d", c.Patch.Fuzz)
	}
	if c.Substitution.TokenPrefix == "" || c.Substitution.TokenSuffix == "" {
		return invalid("substitution", "substitution token prefix and suffix must both be set")
	}
	for name := range c.Substitution.Variables {
		if name == "" {
			return invalid("substitution.variables", "substitution variable with an empty name")
		}
	}
	if c.Staging.WorkRoot == "" {
		return invalid("staging.work_root", "staging.work_root is empty")
	}
	return nil
}

func invalid(key, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrConfigValid, format, args...).WithDetail("key", key)
}

package main

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Stage source resources and apply patches to them"
	MsgRootLong        = "stager extracts a fetched resource into a fresh working tree and applies\nan ordered list of patches to it, stopping at the first failure."
	MsgStageShort      = "Stage the resource described by a manifest"
	MsgStageLong       = "Stage reads a TOML or YAML manifest, fetches its resource and patches,\nextracts the resource into a new working tree under the work root and\napplies the resource patches followed by the manifest patches.\n\nThe source directory of the working tree is printed on stdout."
	MsgStrategiesShort = "List extraction strategies in probe order"
	MsgStrategiesLong  = "List extraction strategies in the order they are probed. Given a path,\nmark the strategy that would extract it."
	MsgVersionShort    = "Print version information"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig   = "Config file (default $XDG_CONFIG_HOME/stager/config.toml)"
	MsgFlagWorkRoot = "Directory working trees are created in"
	MsgFlagVar      = "Substitution variable as name=value (repeatable)"
	MsgFlagMove     = "Move a directory resource into the working tree instead of copying it"

	// Error messages
	MsgErrNoCommand  = "no command specified"
	MsgErrVarFormat  = "invalid --var %q, expected name=value"
	MsgErrLoadConfig = "failed to load configuration: %w"
	MsgErrFailedTree = "partial working tree left at %s\n"
	MsgErrScratchDir = "cannot create scratch directory"
	MsgDebugStaging  = "Staging manifest"
)

package switchtool

const (
	// DefaultCommand is the executable name looked up in the search path.
	DefaultCommand = "switch-tool"
	// DefaultSearchPath is used when no search path is configured.
	DefaultSearchPath = "/usr/bin:/bin/sbin"
)

type hostCommand = string

const (
	CommandSwitch hostCommand = "switch"
	FlagApply     hostCommand = "--apply"
)

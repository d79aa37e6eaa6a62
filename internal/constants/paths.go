package constants

// Log file names.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.nemo/logs/nemo.log
	CLILogFileName = "nemo.log"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global configuration file
	// inside the nemo home directory.
	GlobalConfigName = "config.yaml"

	// ProjectConfigName is the project-level configuration file in the
	// current working directory.
	ProjectConfigName = ".nemo.yaml"

	// LegacyConfigName is the JSON configuration file name accepted for
	// compatibility with existing setups.
	LegacyConfigName = "config.json"
)

package utils

const (
	// EnvVarPrefix is the prefix for all surfacefit environment variables.
	EnvVarPrefix = "SURFACEFIT_"

	// ConfigEnvVar names a fit config file to use when none is given on the command line.
	ConfigEnvVar = EnvVarPrefix + "CONFIG"

	// DataDirEnvVar is the directory relative input and output paths in a config resolve against.
	DataDirEnvVar = EnvVarPrefix + "DATA_DIR"

	// DebugEnvVar turns on debug logging when set to a true value.
	DebugEnvVar = EnvVarPrefix + "DEBUG"

	// LogLevelEnvVar sets the minimum log level.
	LogLevelEnvVar = EnvVarPrefix + "LOG_LEVEL"
)

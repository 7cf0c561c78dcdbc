// Package utils holds the configuration loader and logger factory shared by the CLI commands.
//
// ConfigurationLoader layers embedded defaults, configuration files and
// PINMIRROR_ environment variables through Viper; LoggerFactory builds zap
// loggers in structured or console form.
package utils

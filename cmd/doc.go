// Package cmd implements the command line interface of aionet using the
// cobra framework. The root command exposes the shared transport selection
// flag; subcommands cover diagnostics (probe) and version information.
//
// Configuration is resolved in the usual precedence order: command line
// flags override environment variables (prefix AIONET, loaded via viper and
// godotenv) which override the defaults.
package cmd

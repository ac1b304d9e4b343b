// Package main hosts the reelcut CLI entrypoint and command graph.
//
// The root command runs the configured stage pipeline over the files given on
// the command line. Subcommands list the registered stages, check external
// tools and provider credentials, show the run history, and scaffold the
// configuration file. Wiring lives here; the processing itself belongs to the
// internal packages.
package main

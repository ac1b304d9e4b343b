// Package preflight provides readiness checks for the binaries, directories
// and remote services reelcut depends on.
//
// The CLI "reelcut doctor" command runs RunAll plus CheckSystemDeps and prints
// the results. Service probes are supplied by the caller so this package does
// not depend on any provider client.
package preflight

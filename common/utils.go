// Package common holds process-level helpers shared by the binaries:
// logger construction and build metadata.
package common

// PackageName is used as the metrics namespace.
const PackageName = "account_registry"

// Version is overwritten at build time via -ldflags.
var Version = "dev"

// Package version reports the build of the objectgraph library embedded in
// a binary.
//
// Values can be stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/objectgraph/version.Version=1.2.0"
//
// Anything left unset is filled from the Go build info when available.
package version

// Package version reports build information for asynciter binaries.
//
// Version and BuildTime are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/asynciter/version.Version=0.2.0" ./cmd/asyncdrain
//
// The commit and dirty flag come from the module's embedded VCS settings.
package version

// internal/version/version.go
package version

// Version is overridden at link time: -ldflags "-X finsim/internal/version.Version=v1.2.3".
var Version = "dev"

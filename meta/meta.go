package meta

// Version is overridden at build time with -ldflags "-X github.com/jonsim/robot-trace/meta.Version=...".
var Version = "dev"

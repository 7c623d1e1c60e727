// Package main hosts the winelens CLI entrypoint and command graph.
//
// The Cobra command tree replays recognizer output through the scan tracker,
// inspects and archives scan sessions, maintains the local match index, and
// scaffolds configuration. Configuration resolution and logging setup live in
// the shared command context so subcommands stay small.
package main

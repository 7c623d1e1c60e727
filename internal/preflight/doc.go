// Package preflight provides readiness checks for the directories and
// services winelens depends on.
//
// The CLI "winelens doctor" command runs RunAll and renders the results.
// Remote search is only checked when enabled in config.
package preflight

package root_test

// Subcommands register themselves on root.RootCmd from their own packages,
// which import this one; link them into the test binary so tests that
// dispatch to a subcommand (e.g. "config show") can resolve it.
import (
	_ "rtunnel/cmd/misc"
)

// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/serterm/pkg/cli/cmds/espled"
)

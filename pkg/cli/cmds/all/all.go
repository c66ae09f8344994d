// Package all registers all shell commands.
package all

import (
	// commands
	_ "github.com/robotalks/msp.go/pkg/cli/cmds/motors"
	_ "github.com/robotalks/msp.go/pkg/cli/cmds/vibe"
)

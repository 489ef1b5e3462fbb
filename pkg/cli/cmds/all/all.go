// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/mrf.go/pkg/cli/cmds/motion"
	_ "github.com/robotalks/mrf.go/pkg/cli/cmds/pose"
)

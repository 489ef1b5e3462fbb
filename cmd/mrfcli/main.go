package main

import (
	"github.com/robotalks/mrf.go/pkg/cli/sh"
	"github.com/robotalks/mrf.go/pkg/driver"
	"github.com/robotalks/mrf.go/pkg/sim"

	_ "github.com/robotalks/mrf.go/pkg/cli/cmds/all"
)

func init() {
	driver.SetupFlags()
	sim.SetupFlags()
}

func main() {
	sh.Main()
}

package main

import (
	"github.com/robotalks/msp.go/pkg/cli/sh"
	"github.com/robotalks/msp.go/pkg/transport"
	"github.com/robotalks/msp.go/pkg/vibration"

	_ "github.com/robotalks/msp.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	transport.SetupFlags()
	vibration.SetupFlags()
}

func main() {
	sh.Main()
}

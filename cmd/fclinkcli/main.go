package main

import (
	"github.com/robotalks/fclink/pkg/cli/sh"
	"github.com/robotalks/fclink/pkg/env"

	_ "github.com/robotalks/fclink/pkg/cli/cmds/telemetry"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}

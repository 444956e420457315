package main

import (
	"github.com/robotalks/serterm/pkg/cli/sh"
	"github.com/robotalks/serterm/pkg/env"

	_ "github.com/robotalks/serterm/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}

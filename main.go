// Package main is the entry point for the aurras application.
package main

import (
	"github.com/aurras-cli/aurras/cmd"
	"github.com/aurras-cli/aurras/config"
	"github.com/aurras-cli/aurras/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}

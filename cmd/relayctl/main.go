package main

import (
	"github.com/larsks/relayrpc/internal/cli"
	_ "github.com/larsks/relayrpc/internal/logsetup"
	"github.com/larsks/relayrpc/internal/relayctl"
)

func main() {
	cli.StandardMain(
		func() cli.Configurable { return relayctl.NewConfig() },
		relayctl.NewHandler(),
	)
}

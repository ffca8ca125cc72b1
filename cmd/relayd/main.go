package main

import (
	"github.com/larsks/relayrpc/internal/cli"
	_ "github.com/larsks/relayrpc/internal/logsetup"
	"github.com/larsks/relayrpc/internal/relayd"
)

func main() {
	cli.StandardMain(
		func() cli.Configurable { return relayd.NewConfig() },
		relayd.NewHandler(nil),
	)
}

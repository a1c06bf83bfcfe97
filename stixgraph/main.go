package main

import (
	"os"

	_ "github.com/lkarlslund/stixgraph/modules/analyze"
	"github.com/lkarlslund/stixgraph/modules/cli"
	_ "github.com/lkarlslund/stixgraph/modules/frontend"
	_ "github.com/lkarlslund/stixgraph/modules/persistence"
	_ "github.com/lkarlslund/stixgraph/modules/quickmode"
	"github.com/rs/zerolog/log"
)

func main() {
	err := cli.Run()

	if err != nil {
		log.Error().Msg(err.Error())
		os.Exit(1)
	}
}

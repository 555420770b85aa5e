package main

import (
	"github.com/projectdiscovery/gologger"

	"github.com/youyo/clapikit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		gologger.Fatal().Msgf("%s", err)
	}
}

package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"family-quiz-sync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("quizsync failed")
		os.Exit(1)
	}
}

package main

import (
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// pick up a local .env when present; real deployments configure the environment directly
	_ = godotenv.Load()
	if err := serve(); err != nil {
		log.WithError(err).Fatal("Error start up server and serve requests")
	}
}

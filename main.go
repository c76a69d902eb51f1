package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spigell/seoul-job-matcher/cmd"
)

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

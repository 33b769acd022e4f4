package main

import (
	"log"

	"github.com/DJCodeOne/freshwax-sub008/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"log"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/cslab/cschat/cmd"
)

func main() {
	// Optional .env in the working directory; real env wins.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

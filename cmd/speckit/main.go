package main

import (
	"os"

	"github.com/hammaadworks/specialized-spec-kit/internal/infrastructure/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/GrimoireLabs/grimoire/components/core/internal/bootstrap"
	"github.com/GrimoireLabs/grimoire/pkg"
)

func main() {
	pkg.InitLocalEnvConfig()

	service, err := bootstrap.InitServers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize core service: %v\n", err)

		os.Exit(1)
	}

	service.Run()
}

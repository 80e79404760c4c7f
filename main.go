package main

import (
	"os"

	"github.com/sahilchouksey/codelearn-api/app"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
)

func main() {
	// setup and run app
	if err := app.SetupAndRunServer(); err != nil {
		logger.L().Error("server exited", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/GoParcAdmin/GoParcAdmin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}

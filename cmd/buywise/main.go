package main

import (
	"os"

	"buywise/cmd/buywise/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

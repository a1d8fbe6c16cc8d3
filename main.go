package main

import (
	"github.com/pulsekit/golc/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"os"

	"github.com/nextdhcp/dhcpadmin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

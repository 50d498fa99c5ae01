package main

import "github.com/fleetops/sysmgmt/internal/cmd"

func main() {
	cmd.Execute()
}

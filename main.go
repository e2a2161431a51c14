package main

import "github.com/deploymenttheory/go-keysalvage/cmd"

func main() {
	cmd.Execute()
}

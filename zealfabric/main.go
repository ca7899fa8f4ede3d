// Package main is the entry point of the zealfabric command.
package main

import "github.com/sarchlab/zealfabric/zealfabric/cmd"

func main() {
	cmd.Execute()
}

/*
	Copyright 2025 Velora contributors
*/

package main

import "github.com/velora-sim/velora/cmd"

func main() {
	cmd.Execute()
}

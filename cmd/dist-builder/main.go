package main

import "github.com/multiinstance/dist-builder/cmd/dist-builder/cmd"

func main() {
	cmd.Execute()
}

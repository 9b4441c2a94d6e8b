package main

import "github.com/djcass44/aptforge/cmd"

var version = "dev"

func main() {
	cmd.Execute(version)
}

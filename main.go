package main

import "github.com/djcass44/deb-resolver/cmd"

var version = "development"

func main() {
	cmd.Execute(version)
}

package main

import "modwire/internal/cli"

func main() {
	cli.Execute()
}

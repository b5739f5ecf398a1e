package main

import "github.com/statex/statex/pkg/commands"

func main() {
	commands.Execute()
}

package main

import "github.com/agentdeck/streamdown/cmd"

func main() {
	cmd.Execute()
}

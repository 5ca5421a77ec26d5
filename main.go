package main

import "github.com/PEZ/joyride-ai-chat/cmd"

func main() {
	cmd.Execute()
}

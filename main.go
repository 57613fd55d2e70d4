package main

import "github.com/cameronsjo/toolcat/internal/cmd"

func main() {
	cmd.Execute()
}

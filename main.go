package main

import "github.com/reposcope/reposcope/cmd"

func main() {
	cmd.Execute()
}

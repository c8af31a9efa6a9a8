package main

import "github.com/soundlens/soundlens/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/vkolb/echod/cmd"

func main() {
	cmd.Execute()
}

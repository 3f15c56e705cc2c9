package main

import "guardly-cli/cmd"

func main() {
	cmd.Execute()
}

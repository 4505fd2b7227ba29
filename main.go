package main

import "github.com/moonjelly/moonjelly/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/acapretti/bogofree/cmd"

func main() {
	cmd.Execute()
}

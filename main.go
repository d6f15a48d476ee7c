package main

import "github.com/KaramelBytes/treedash-cli/cmd"

func main() {
	cmd.Execute()
}

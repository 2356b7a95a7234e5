package main

import "github.com/sardine-ai/flexpreset/cmd"

func main() {
	cmd.Execute()
}

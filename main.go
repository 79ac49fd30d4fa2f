package main

import "github.com/aionet-io/aionet/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/edgeflag/edgeflag/cmd/edgeflag/cmd"

func main() {
	cmd.Execute()
}

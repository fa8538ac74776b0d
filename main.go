package main

import "github.com/wildlens/apiserver/cmd"

func main() {
	cmd.Execute()
}

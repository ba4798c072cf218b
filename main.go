package main

import "github.com/mselser95/metatx-relay/cmd"

func main() {
	cmd.Execute()
}

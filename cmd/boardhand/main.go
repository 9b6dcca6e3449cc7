package main

import "github.com/jmcleod/boardhand/cmd/boardhand/cmd"

func main() {
	cmd.Execute()
}

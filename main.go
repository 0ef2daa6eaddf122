package main

import "github.com/brogergvhs/cuudl/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/tranvictor/saddle/cmd"

func main() {
	cmd.Execute()
}

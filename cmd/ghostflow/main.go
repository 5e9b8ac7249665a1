package main

import "github.com/storieswithjai/ghostflow/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/mcoot/teamenforcer/internal/cli"

func main() {
	cli.Execute()
}

package main

import "RegimeShift/internal/cli"

func main() {
	cli.Execute()
}

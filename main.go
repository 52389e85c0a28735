package main

import "market-pulse/internal/cli"

func main() {
	cli.Execute()
}

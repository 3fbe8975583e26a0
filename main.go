package main

import "fetchname/internal/cli"

func main() {
	cli.Execute()
}

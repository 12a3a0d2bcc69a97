package main

import "github.com/civium/aegis/internal/cli"

func main() {
	cli.Execute()
}

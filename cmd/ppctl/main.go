package main

import "github.com/mcoot/proplatform/internal/cli"

func main() {
	cli.Execute()
}

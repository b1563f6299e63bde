package main

import "github.com/mcoot/hangchat/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/moodsync/server/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/dogmatiq/courier/internal/cli"

func main() {
	cli.Execute()
}

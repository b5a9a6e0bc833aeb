package main

import "github.com/clubledger/clubledger/internal/cli"

func main() {
	cli.Execute()
}

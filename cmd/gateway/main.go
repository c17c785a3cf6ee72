package main

import "github.com/vietddude/airport-gateway/internal/cli"

func main() {
	cli.Execute()
}

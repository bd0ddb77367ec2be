package main

import "goods-be/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/mvp-joe/schemagraph/internal/cli"

func main() {
	cli.Execute()
}

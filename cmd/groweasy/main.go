package main

import "github.com/groweasy/analytics/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/raywall/copilot-usage-metrics/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/akira-ishikawa-jpg/coin-system/cmd"

func main() {
	cmd.Execute()
}

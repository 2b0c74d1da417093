package main

import "github.com/theirongolddev/evbudget/cmd"

func main() {
	cmd.Execute()
}

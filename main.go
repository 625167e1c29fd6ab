package main

import "github.com/lcharvet/energiedw/cmd"

func main() {
	cmd.Execute()
}

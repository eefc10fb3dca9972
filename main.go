package main

import "github.com/fakeyudi/statusline/cmd"

func main() {
	cmd.Execute()
}

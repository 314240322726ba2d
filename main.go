package main

import "github.com/inverseproblem/goeit/cmd"

func main() {
	cmd.Execute()
}

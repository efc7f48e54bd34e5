package main

import "github.com/openfolio/postfeed/cmd"

func main() {
	cmd.Execute()
}

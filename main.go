package main

import "snowcheck/cmd"

func main() {
	cmd.Execute()
}

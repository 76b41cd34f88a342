package main

import "shish/cmd"

func main() {
	cmd.Execute()
}

package main

import "Tracksmith/cmd"

func main() {
	cmd.Execute()
}

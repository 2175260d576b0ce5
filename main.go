package main

import "AginMusic/cmd"

func main() {
	cmd.Execute()
}

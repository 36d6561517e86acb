package main

import "tonotes/cmd"

func main() {
	cmd.Execute()
}

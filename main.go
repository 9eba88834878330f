package main

import "ideset/src/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/isciml/magsolve/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/nethalo/dbmigrate/cmd"

func main() {
	cmd.Execute()
}

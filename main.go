package main

import "github.com/ValentinKolb/logicbridge/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/ValentinKolb/tsput/cmd"

func main() {
	cmd.Execute()
}

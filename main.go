package main

import "github.com/muhammadbaburrashid-jpg/Poke-pipeline/cmd"

func main() {
	cmd.Execute()
}

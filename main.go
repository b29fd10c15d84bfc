package main

import "github.com/Ap6pack/PDF-Search-Plus/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/frahmantamala/benefits-portal/cmd"

func main() {
	cmd.Execute()
}

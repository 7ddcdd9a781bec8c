package main

import "github.com/Alijeyrad/formora_backend/cmd"

func main() {
	cmd.Execute()
}

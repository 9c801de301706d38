package main

import "github.com/zatekoja/storeguard/internal/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/ggoodman/request-auth-go/cmd/reqauth/cmd"

func main() {
	cmd.Execute()
}

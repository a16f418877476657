package main

import "github.com/frahmantamala/user-rbac/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/rustdesk/rustdesk-packager/cmd/rustdesk-packager/cmd"

func main() {
	cmd.Execute()
}

package main

import "platform-common/cmd"

func main() {
	cmd.Execute()
}

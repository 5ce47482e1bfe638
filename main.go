package main

import "github.com/Lap-DevOps/Organizational-Chart/cmd"

func main() {
	cmd.Execute()
}

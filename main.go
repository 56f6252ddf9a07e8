package main

import "github.com/studyai/studyai/cmd"

func main() {
	cmd.Execute()
}

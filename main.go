package main

import "github.com/mkrejcir/face-attendance/cmd"

func main() {
	cmd.Execute()
}

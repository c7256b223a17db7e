package main

import "voicefx-media/cmd"

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/rubiojr/livepreview/cmd"
	_ "github.com/rubiojr/livepreview/designsystem/nova"
)

var version = "v0.1.0"

func main() {
	cmd.Execute(version)
}

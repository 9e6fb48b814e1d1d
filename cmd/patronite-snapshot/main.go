package main

import (
	"patronite-snapshot/cmd/patronite-snapshot/commands"
	"patronite-snapshot/internal/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}

// cmd/finsim/main.go
package main

import (
	"finsim/internal/app"
	"finsim/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }

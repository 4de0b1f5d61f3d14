// File: main.go
package main

import (
	"github.com/activebook/reportflow/cmd"
)

func main() {
	cmd.Execute()
}

// This program performs administrative tasks for the faucet service.
package main

import (
	"github.com/DavidBacZit/nadfaucet/app/tooling/admin/commands"
)

func main() {
	commands.Execute()
}

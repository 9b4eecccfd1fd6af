package main

import (
	"github.com/onflow/evm-call-harness/cmd/harness/cmd"
)

func main() {
	cmd.Execute()
}

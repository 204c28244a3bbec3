// Command tablegen generates typed Go data-access code from table schemas.
package main

import (
	"os"

	"github.com/syssam/tablegen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// This program provides node operators offline administration of the
// evidence ledger: key generation and direct inspection of the block store.
package main

import (
	"github.com/honeytrace/ledger/app/tooling/admin/cmd"
)

func main() {
	cmd.Execute()
}

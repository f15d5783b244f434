// Command operator-key creates and checks the shared key that guards the
// schedule management endpoints.
//
//	operator-key generate            # new random key plus its hash
//	operator-key hash <key>          # hash an existing key
//	operator-key verify <key>        # check a key against OPERATOR_KEY_HASH
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

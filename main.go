// SPDX-License-Identifier: MPL-2.0

// Command tend initializes and repairs project configuration artifacts.
package main

import "github.com/tendkit/tend/cmd/tend"

func main() {
	cmd.Execute()
}

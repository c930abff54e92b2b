// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/npmpub/npmpub/cmd/npmpub"

func main() {
	cmd.Execute()
}

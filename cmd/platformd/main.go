// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

// Command platformd runs the resource API server: the document
// substrate, the controller runtime, the access-control enforcer, and
// the OAuth2 protocol core, all served over the HTTP boundary.
package main

import (
	"fmt"
	"os"

	"github.com/latticectl/core/cmd/platformd/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "there was an error: %v\n", err)
		os.Exit(1)
	}
}

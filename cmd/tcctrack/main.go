/*
Copyright © 2026 the tcctrack authors.
This file is part of tcctrack.

tcctrack is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

tcctrack is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.
*/

// Command tcctrack is a command-line interface for Tropical Cloud
// Cluster detection and tracking.
package main

import (
	"fmt"
	"os"

	"github.com/metsat/tcctrack/internal/cli"
)

func main() {
	cfg := cli.InitializeConfig()
	if err := cfg.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

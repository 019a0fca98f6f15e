// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"log"

	"github.com/VA7DBI/movieAPI/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("movieapi: %v", err)
	}
}

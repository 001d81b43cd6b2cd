package main

// Blank imports ensure theme init() registration runs for the CLI binary.
import (
	_ "time/tzdata"

	_ "github.com/alexisbeaulieu97/countdown/internal/themes/grid"
	_ "github.com/alexisbeaulieu97/countdown/internal/themes/minimal"
)

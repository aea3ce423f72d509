package main

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// DefaultEnv returns the production environment.
func DefaultEnv(level log.Level) *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: newLogger(os.Stderr, level),
	}
}

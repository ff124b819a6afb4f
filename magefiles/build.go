//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the taxonomy CLI using Mage.
//
// Usage:
//
//	mage build             Compile the taxonomy binary to bin/
//	mage test:all          Run unit and integration tests
//	mage test:unit         Run unit tests only
//	mage test:integration  Build, then run the binary tests in tests/
//	mage test:race         Run unit tests with the race detector
//	mage test:cover        Write coverage.out and print a summary
//	mage lint              Run golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install taxonomy to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "taxonomy"
	binaryDir  = "bin"
	cmdDir     = "./cmd/taxonomy"
	coverFile  = "coverage.out"
)

// ldflags stamps the CLI version when TAXONOMY_VERSION is set.
func ldflags() string {
	v := os.Getenv("TAXONOMY_VERSION")
	if v == "" {
		return ""
	}
	return "-X github.com/banisterious/obsidian-oneirometrics-sub006/internal/cli.Version=" + v
}

// Build compiles the taxonomy binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if f := ldflags(); f != "" {
		args = append(args, "-ldflags", f)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	if err := sh.Rm(coverFile); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

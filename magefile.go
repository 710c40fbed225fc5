//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary     = "jembatan"
	lambdaZip  = "jembatan-lambda.zip"
	lambdaFunc = "bootstrap"
)

// Default target to run when none is specified
var Default = Build

// Build builds the jembatan binary
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/jembatan")
}

// Lambda builds the Lambda bootstrap binary and zips it
func Lambda() error {
	fmt.Println("Building Lambda function")
	env := map[string]string{"GOOS": "linux", "GOARCH": "arm64", "CGO_ENABLED": "1"}
	if err := sh.RunWithV(env, "go", "build", "-tags", "lambda.norpc", "-o", lambdaFunc, "./cmd/lambda"); err != nil {
		return err
	}
	return sh.RunV("zip", "-j", lambdaZip, lambdaFunc)
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "-v", "./...")
}

// Cover runs the tests with a coverage report
func Cover() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Lint runs go vet and gofmt
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	out, err := sh.Output("gofmt", "-l", "cmd", "internal")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Install installs jembatan to $GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "./cmd/jembatan")
}

// Clean removes build artifacts
func Clean() error {
	for _, f := range []string{binary, lambdaFunc, lambdaZip, "coverage.out"} {
		if err := os.RemoveAll(f); err != nil {
			return err
		}
	}
	return nil
}

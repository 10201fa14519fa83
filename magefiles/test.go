//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package's tests with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Runs the tests of the loading systems only.
func (Test) Systems() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./engine/systems/..."), withStream())
	return err
}

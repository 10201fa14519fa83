//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the showroom against scene.toml.
func (Run) Showroom() error {
	mg.Deps(Build.Showroom)
	fmt.Println("Run showroom...")
	_, err := executeCmd("bin/showroom", withArgs("-config", "scene.toml"), withStream())
	return err
}

// Runs headless and exits once every asset settled, handy on CI.
func (Run) Headless() error {
	mg.Deps(Build.Showroom)
	_, err := executeCmd("bin/showroom", withArgs("-config", "scene.toml", "-headless", "-exit-when-loaded"), withStream())
	return err
}

//go:build mage

package main

import (
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Paper groups targets that drive a run through the built CLI.
type Paper mg.Namespace

// Init builds the plan for a project file.
func (Paper) Init(project string) error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "init", project)
}

// Run generates every planned section.
func (Paper) Run() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "run")
}

// Resume continues an interrupted run.
func (Paper) Resume() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "run", "--resume")
}

// Progress prints section progress.
func (Paper) Progress() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "progress")
}

// References prints the sources cited so far as CSL-YAML.
func (Paper) References() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "sources", "--cited", "--format", "csl")
}

// Sources registers comma-separated arXiv IDs or DOIs and adds them to the
// current run.
func (Paper) Sources(identifiers string) error {
	mg.Deps(Build)
	args := append([]string{"sources", "add"}, strings.Split(identifiers, ",")...)
	return sh.RunV(binPath, args...)
}

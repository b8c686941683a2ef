package inventory

import "context"

// PackageRecord describes one installed package as reported by the source manager.
type PackageRecord struct {
	Name         string   `json:"name" yaml:"name"`
	Version      string   `json:"version" yaml:"version"`
	Tap          string   `json:"tap,omitempty" yaml:"tap,omitempty"`
	IsCask       bool     `json:"is_cask" yaml:"is_cask"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
	Pinned       bool     `json:"pinned" yaml:"pinned"`
}

// PackageSource lists installed packages and performs source-side maintenance.
type PackageSource interface {
	ListInstalledFormulae(executionContext context.Context) ([]PackageRecord, error)
	ListInstalledFormulaeDetailed(executionContext context.Context) ([]PackageRecord, error)
	ListInstalledCasks(executionContext context.Context) ([]PackageRecord, error)
	DetectPrefix(executionContext context.Context) (string, error)
	CheckOutdated(executionContext context.Context) ([]string, error)
	UpgradeAll(executionContext context.Context) error
	Uninstall(executionContext context.Context, packageName string) error
}

// PackageInstaller installs packages into the target manager.
type PackageInstaller interface {
	Install(executionContext context.Context, packageName string) error
}

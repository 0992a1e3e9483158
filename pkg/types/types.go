package types

import (
	"fmt"
	"regexp"

	"github.com/lgulliver/cargolifter/pkg/utils"
)

var crateNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Dependency is a dependency as sent by cargo in the publish metadata
type Dependency struct {
	Name            string   `json:"name"`
	VersionReq      string   `json:"version_req"`
	Features        []string `json:"features"`
	Optional        bool     `json:"optional"`
	DefaultFeatures bool     `json:"default_features"`
	Target          *string  `json:"target"`
	Kind            string   `json:"kind"`
	Registry        *string  `json:"registry"`
	Package         *string  `json:"package"`
}

// MetaData is the JSON part of a cargo publish request
type MetaData struct {
	Name          string                       `json:"name"`
	Vers          string                       `json:"vers"`
	Deps          []Dependency                 `json:"deps"`
	Features      map[string][]string          `json:"features"`
	Authors       []string                     `json:"authors"`
	Description   *string                      `json:"description"`
	Documentation *string                      `json:"documentation"`
	Homepage      *string                      `json:"homepage"`
	Readme        *string                      `json:"readme"`
	ReadmeFile    *string                      `json:"readme_file"`
	Keywords      []string                     `json:"keywords"`
	Categories    []string                     `json:"categories"`
	License       *string                      `json:"license"`
	LicenseFile   *string                      `json:"license_file"`
	Repository    *string                      `json:"repository"`
	Badges        map[string]map[string]string `json:"badges"`
	Links         *string                      `json:"links"`
}

// ValidateCrateName checks that name is a legal crate name
func ValidateCrateName(name string) error {
	if !crateNameRegex.MatchString(name) {
		return fmt.Errorf("invalid crate name: %q", name)
	}
	return nil
}

// ValidateCrateVersion checks that vers is a full semantic version
func ValidateCrateVersion(vers string) error {
	if !utils.ValidateVersion(vers) {
		return fmt.Errorf("invalid crate version: %q", vers)
	}
	return nil
}

// Validate checks the crate name and version format
func (m *MetaData) Validate() error {
	if err := ValidateCrateName(m.Name); err != nil {
		return err
	}
	return ValidateCrateVersion(m.Vers)
}

// PublishRequest is a decoded publish call: metadata plus the .crate tarball
type PublishRequest struct {
	Meta MetaData
	Data []byte
}

// YankRequest sets (Yank=true) or clears (Yank=false) the yanked flag of one version
type YankRequest struct {
	Name string `json:"name"`
	Vers string `json:"vers"`
	Yank bool   `json:"yank"`
}

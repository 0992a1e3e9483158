package index

import (
	"github.com/lgulliver/cargolifter/pkg/types"
	"github.com/lgulliver/cargolifter/pkg/utils"
)

// PublishedDependency is a dependency as stored in the index
type PublishedDependency struct {
	Name            string   `json:"name"`
	Req             string   `json:"req"`
	Features        []string `json:"features"`
	Optional        bool     `json:"optional"`
	DefaultFeatures bool     `json:"default_features"`
	Target          *string  `json:"target"`
	Kind            string   `json:"kind"`
	Registry        *string  `json:"registry"`
	Package         *string  `json:"package"`
}

// NewPublishedDependency projects a publish-time dependency into its index form
func NewPublishedDependency(dep types.Dependency) PublishedDependency {
	features := dep.Features
	if features == nil {
		features = []string{}
	}
	return PublishedDependency{
		Name:            dep.Name,
		Req:             dep.VersionReq,
		Features:        features,
		Optional:        dep.Optional,
		DefaultFeatures: dep.DefaultFeatures,
		Target:          dep.Target,
		Kind:            dep.Kind,
		Registry:        dep.Registry,
		Package:         dep.Package,
	}
}

// Key identifies a version in the index
type Key struct {
	Name string
	Vers string
}

// PublishedVersion is one line of a crate's index file.
//
// Two versions are the same entity when name and vers match; deps, features
// and checksum are not part of the identity.
type PublishedVersion struct {
	Name     string                `json:"name"`
	Vers     string                `json:"vers"`
	Deps     []PublishedDependency `json:"deps"`
	Cksum    string                `json:"cksum"`
	Features map[string][]string   `json:"features"`
	Yanked   bool                  `json:"yanked"`
	Links    *string               `json:"links"`

	// raw is the line this record was decoded from; it is written back
	// verbatim until the record is modified.
	raw []byte
}

// NewPublishedVersion builds the index record for a publish request
func NewPublishedVersion(req *types.PublishRequest) PublishedVersion {
	deps := make([]PublishedDependency, 0, len(req.Meta.Deps))
	for _, dep := range req.Meta.Deps {
		deps = append(deps, NewPublishedDependency(dep))
	}

	features := req.Meta.Features
	if features == nil {
		features = map[string][]string{}
	}

	return PublishedVersion{
		Name:     req.Meta.Name,
		Vers:     req.Meta.Vers,
		Deps:     deps,
		Cksum:    utils.ComputeSHA256(req.Data),
		Features: features,
		Yanked:   false,
		Links:    req.Meta.Links,
	}
}

// Key returns the identity of the version
func (v *PublishedVersion) Key() Key {
	return Key{Name: v.Name, Vers: v.Vers}
}

// SameAs reports whether both records describe the same crate version
func (v *PublishedVersion) SameAs(other *PublishedVersion) bool {
	return v.Key() == other.Key()
}

// SetYanked updates the yanked flag and marks the record as modified
func (v *PublishedVersion) SetYanked(yanked bool) {
	v.Yanked = yanked
	v.raw = nil
}

// Records is the ordered content of one index file
type Records []PublishedVersion

// Find returns the position of the version with the given key, or -1
func (r Records) Find(name, vers string) int {
	key := Key{Name: name, Vers: vers}
	for i := range r {
		if r[i].Key() == key {
			return i
		}
	}
	return -1
}

// Contains reports whether a version with the given key exists
func (r Records) Contains(name, vers string) bool {
	return r.Find(name, vers) >= 0
}

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaData_Validate(t *testing.T) {
	tests := []struct {
		name        string
		meta        MetaData
		shouldError bool
	}{
		{name: "valid", meta: MetaData{Name: "serde_json", Vers: "1.0.108"}},
		{name: "prerelease", meta: MetaData{Name: "tokio-util", Vers: "0.7.0-alpha.1"}},
		{name: "leading digit", meta: MetaData{Name: "1password", Vers: "1.0.0"}, shouldError: true},
		{name: "empty name", meta: MetaData{Name: "", Vers: "1.0.0"}, shouldError: true},
		{name: "bad version", meta: MetaData{Name: "serde", Vers: "one"}, shouldError: true},
		{name: "partial version", meta: MetaData{Name: "serde", Vers: "1.0"}, shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.shouldError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCrateName(t *testing.T) {
	for _, name := range []string{"serde", "tokio-util", "serde_json", "A1"} {
		assert.NoError(t, ValidateCrateName(name), name)
	}
	for _, name := range []string{"", "..", ".", "foo/bar", "foo.bar", "-foo", "_foo", "1password"} {
		assert.Error(t, ValidateCrateName(name), name)
	}
}

func TestValidateCrateVersion(t *testing.T) {
	assert.NoError(t, ValidateCrateVersion("1.0.0"))
	assert.NoError(t, ValidateCrateVersion("0.7.0-alpha.1"))
	assert.Error(t, ValidateCrateVersion(".."))
	assert.Error(t, ValidateCrateVersion("latest"))
}

func TestMetaData_UnmarshalCargoPayload(t *testing.T) {
	payload := `{
		"name": "foo",
		"vers": "0.1.0",
		"deps": [{
			"name": "serde",
			"version_req": "^1.0",
			"features": ["derive"],
			"optional": false,
			"default_features": true,
			"target": null,
			"kind": "normal",
			"registry": null
		}],
		"features": {"default": ["std"], "std": []},
		"authors": ["someone"],
		"description": "a crate",
		"license": "MIT",
		"links": null,
		"badges": {}
	}`

	var meta MetaData
	require.NoError(t, json.Unmarshal([]byte(payload), &meta))

	assert.Equal(t, "foo", meta.Name)
	require.Len(t, meta.Deps, 1)
	assert.Equal(t, "^1.0", meta.Deps[0].VersionReq)
	assert.Nil(t, meta.Deps[0].Target)
	assert.Equal(t, []string{"std"}, meta.Features["default"])
	require.NotNil(t, meta.Description)
	assert.Equal(t, "a crate", *meta.Description)
	assert.Nil(t, meta.Links)
}

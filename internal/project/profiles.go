package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/piwi3910/coursefactory/internal/model"
)

// ProfileFile is the shareable form of a single layout profile.
type ProfileFile struct {
	Template string              `json:"template"`
	Profile  model.LayoutProfile `json:"profile"`
}

// ProfilesPath returns the layout profile library path inside a config
// directory.
func ProfilesPath(configDir string) string {
	return filepath.Join(configDir, "profiles.json")
}

// SaveProfiles saves a layout profile library to a JSON file.
func SaveProfiles(path string, profiles model.LayoutProfiles) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if profiles == nil {
		profiles = model.LayoutProfiles{}
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProfiles loads a layout profile library from a JSON file.
// Returns an empty library if the file does not exist.
func LoadProfiles(path string) (model.LayoutProfiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.LayoutProfiles{}, nil
		}
		return nil, err
	}

	var profiles model.LayoutProfiles
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = model.LayoutProfiles{}
	}
	return profiles, nil
}

// ExportProfile exports a single template's layout profile to a JSON file
// (for sharing).
func ExportProfile(path, template string, profile model.LayoutProfile) error {
	data, err := json.MarshalIndent(ProfileFile{Template: template, Profile: profile}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ImportProfile imports a single layout profile from a JSON file.
func ImportProfile(path string) (ProfileFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProfileFile{}, err
	}

	var pf ProfileFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return ProfileFile{}, err
	}
	if pf.Template == "" {
		return ProfileFile{}, errors.New("imported profile has no template key")
	}
	return pf, nil
}

package notifications

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseDirectoryYAML reads a role to users mapping:
//
//	Admin:
//	  - u1
//	  - u2
//	Employer: [e1]
//
// Blank role names and user IDs are rejected.
func ParseDirectoryYAML(r io.Reader) (*StaticDirectory, error) {
	var roles map[string][]string
	if err := yaml.NewDecoder(r).Decode(&roles); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrDirectory, err)
	}

	for role, users := range roles {
		if strings.TrimSpace(role) == "" {
			return nil, fmt.Errorf("%w: blank role name", ErrDirectory)
		}
		for i, u := range users {
			if strings.TrimSpace(u) == "" {
				return nil, fmt.Errorf("%w: role %q: blank user id at position %d", ErrDirectory, role, i)
			}
		}
	}
	return NewStaticDirectory(roles), nil
}

// LoadDirectoryFile parses the YAML role file at path.
func LoadDirectoryFile(path string) (*StaticDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrDirectory, err)
	}
	defer f.Close()
	return ParseDirectoryYAML(f)
}

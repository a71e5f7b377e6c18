package rbac

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

type roleFile struct {
	Roles map[Role]Definition `yaml:"roles"`
}

// yamlRoleSource reads role definitions from a YAML document:
//
//	roles:
//	  ROLE_USER: {}
//	  ROLE_MANAGER:
//	    inherits: [ROLE_USER]
type yamlRoleSource struct {
	fsys fs.FS
	name string
}

// NewYAMLRoleSource creates a RoleSource reading name from fsys on every Load.
func NewYAMLRoleSource(fsys fs.FS, name string) RoleSource {
	return &yamlRoleSource{fsys: fsys, name: name}
}

// Load reads and decodes the role file.
func (s *yamlRoleSource) Load(ctx context.Context) (map[Role]Definition, error) {
	raw, err := fs.ReadFile(s.fsys, s.name)
	if err != nil {
		return nil, errors.Join(ErrInvalidRoleFile, err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes role definitions from a YAML document.
func ParseYAML(raw []byte) (map[Role]Definition, error) {
	var f roleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Join(ErrInvalidRoleFile, err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("%w: no roles defined", ErrInvalidRoleFile)
	}
	return f.Roles, nil
}

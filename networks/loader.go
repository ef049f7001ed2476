package networks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tranvictor/saddle/source"
)

// profileFile is the on-disk shape. JSON files decode through the same path
// since YAML is a superset of JSON.
type profileFile struct {
	Networks map[string]rawProfile `yaml:"networks"`
}

type rawProfile struct {
	AlternativeNames []string       `yaml:"alternative_names,omitempty"`
	Providers        source.List    `yaml:"providers"`
	Accounts         source.List    `yaml:"accounts"`
	Gas              source.List    `yaml:"gas"`
	GasPrice         source.List    `yaml:"gas_price"`
	Options          map[string]any `yaml:"options,omitempty"`
	Web3             *rawWeb3       `yaml:"web3,omitempty"`
}

// rawWeb3 accepts the older layout where gas settings (and sometimes the
// accounts) sit under a web3 key.
type rawWeb3 struct {
	Gas      source.List    `yaml:"gas"`
	GasPrice source.List    `yaml:"gas_price"`
	Accounts source.List    `yaml:"accounts"`
	Options  map[string]any `yaml:"options"`
}

// ParseProfiles decodes a profile document. origin is only used in error
// messages.
func ParseProfiles(data []byte, origin string) ([]Profile, error) {
	var raw profileFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse profiles %q: %w", origin, err)
	}

	names := make([]string, 0, len(raw.Networks))
	for name := range raw.Networks {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		p, err := raw.Networks[name].profile(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", origin, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", origin, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (r rawProfile) profile(name string) (Profile, error) {
	p := Profile{
		Name:             name,
		AlternativeNames: r.AlternativeNames,
		Providers:        r.Providers,
		Accounts:         r.Accounts,
		Gas:              r.Gas,
		GasPrice:         r.GasPrice,
		Options:          r.Options,
	}
	if r.Web3 == nil {
		return p, nil
	}
	var err error
	if p.Gas, err = pick(name, ParamGas, p.Gas, r.Web3.Gas); err != nil {
		return Profile{}, err
	}
	if p.GasPrice, err = pick(name, ParamGasPrice, p.GasPrice, r.Web3.GasPrice); err != nil {
		return Profile{}, err
	}
	if p.Accounts, err = pick(name, ParamAccounts, p.Accounts, r.Web3.Accounts); err != nil {
		return Profile{}, err
	}
	if p.Options != nil && r.Web3.Options != nil {
		return Profile{}, fmt.Errorf("profile %q: options declared both at top level and under web3", name)
	}
	if p.Options == nil {
		p.Options = r.Web3.Options
	}
	return p, nil
}

func pick(profile, param string, top, web3 source.List) (source.List, error) {
	if len(top) > 0 && len(web3) > 0 {
		return nil, fmt.Errorf("profile %q: %s declared both at top level and under web3", profile, param)
	}
	if len(top) > 0 {
		return top, nil
	}
	return web3, nil
}

// MarshalProfiles encodes profiles in the layout ParseProfiles reads.
func MarshalProfiles(profiles ...Profile) ([]byte, error) {
	file := profileFile{Networks: map[string]rawProfile{}}
	for _, p := range profiles {
		file.Networks[p.Name] = rawProfile{
			AlternativeNames: p.AlternativeNames,
			Providers:        p.Providers,
			Accounts:         p.Accounts,
			Gas:              p.Gas,
			GasPrice:         p.GasPrice,
			Options:          p.Options,
		}
	}
	buf := &bytes.Buffer{}
	encoder := yaml.NewEncoder(buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(file); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadProfiles reads and decodes a profile file.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %q: %w", path, err)
	}
	return ParseProfiles(data, path)
}

// CustomProfilesDir is where user profiles live: ~/.saddle/networks.
func CustomProfilesDir() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join(usr.HomeDir, ".saddle", "networks"), nil
}

// LoadCustomProfiles loads every profile file in dir. A missing directory
// means no custom profiles.
func LoadCustomProfiles(dir string) ([]Profile, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	files := []string{}
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s files in %s: %w", pattern, dir, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	profiles := []Profile{}
	for _, file := range files {
		loaded, err := LoadProfiles(file)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, loaded...)
	}
	return profiles, nil
}

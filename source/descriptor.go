package source

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Descriptor holds.
type Kind string

const (
	KindEnv       Kind = "env"
	KindDefault   Kind = "default"
	KindFile      Kind = "file"
	KindHTTP      Kind = "http"
	KindUnlocked  Kind = "unlocked"
	KindEphemeral Kind = "ephemeral"
)

// Descriptor is one candidate way to obtain a parameter value. Only the
// field matching Kind is meaningful.
type Descriptor struct {
	Kind    Kind
	Name    string         // env
	Value   string         // default
	Path    string         // file
	URL     string         // http
	Index   int            // unlocked
	Options map[string]any // ephemeral
}

func EnvVar(name string) Descriptor {
	return Descriptor{Kind: KindEnv, Name: name}
}

func Default(value string) Descriptor {
	return Descriptor{Kind: KindDefault, Value: value}
}

func File(path string) Descriptor {
	return Descriptor{Kind: KindFile, Path: path}
}

func HTTP(url string) Descriptor {
	return Descriptor{Kind: KindHTTP, URL: url}
}

func Unlocked(index int) Descriptor {
	return Descriptor{Kind: KindUnlocked, Index: index}
}

func Ephemeral(options map[string]any) Descriptor {
	return Descriptor{Kind: KindEphemeral, Options: cloneOptions(options)}
}

// String renders the descriptor the way it shows up in diagnostics,
// e.g. env(PROVIDER) or unlocked(0).
func (d Descriptor) String() string {
	switch d.Kind {
	case KindEnv:
		return fmt.Sprintf("env(%s)", d.Name)
	case KindDefault:
		return fmt.Sprintf("default(%s)", d.Value)
	case KindFile:
		return fmt.Sprintf("file(%s)", d.Path)
	case KindHTTP:
		return fmt.Sprintf("http(%s)", d.URL)
	case KindUnlocked:
		return fmt.Sprintf("unlocked(%d)", d.Index)
	case KindEphemeral:
		if len(d.Options) == 0 {
			return "ephemeral()"
		}
		keys := make([]string, 0, len(d.Options))
		for k := range d.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, d.Options[k]))
		}
		return fmt.Sprintf("ephemeral(%s)", strings.Join(parts, ","))
	default:
		return fmt.Sprintf("unknown(%s)", d.Kind)
	}
}

// Clone returns a copy that shares no maps with d.
func (d Descriptor) Clone() Descriptor {
	d.Options = cloneOptions(d.Options)
	return d
}

// List is an ordered fallback chain. Earlier entries take priority.
type List []Descriptor

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, d := range l {
		out[i] = d.Clone()
	}
	return out
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, d := range l {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func cloneOptions(options map[string]any) map[string]any {
	if options == nil {
		return nil
	}
	out := make(map[string]any, len(options))
	for k, v := range options {
		out[k] = v
	}
	return out
}

// kindAliases maps the keys accepted in declarative tables to a Kind.
// ganache and anvil both spawn a local ephemeral node.
var kindAliases = map[string]Kind{
	"env":       KindEnv,
	"default":   KindDefault,
	"file":      KindFile,
	"http":      KindHTTP,
	"unlocked":  KindUnlocked,
	"ephemeral": KindEphemeral,
	"ganache":   KindEphemeral,
	"anvil":     KindEphemeral,
}

// fromMap builds a Descriptor from its single-key object form, e.g.
// {"env": "PROVIDER"} or {"ganache": {"gasLimit": 80000000}}.
func fromMap(raw map[string]any) (Descriptor, error) {
	if len(raw) != 1 {
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return Descriptor{}, fmt.Errorf("source must have exactly one key, got %d (%s)", len(raw), strings.Join(keys, ", "))
	}
	for key, value := range raw {
		kind, ok := kindAliases[key]
		if !ok {
			return Descriptor{}, fmt.Errorf("unknown source kind %q", key)
		}
		switch kind {
		case KindEnv, KindDefault, KindFile, KindHTTP:
			text, err := scalarString(value)
			if err != nil {
				return Descriptor{}, fmt.Errorf("%s: %w", key, err)
			}
			if text == "" && kind != KindDefault {
				return Descriptor{}, fmt.Errorf("%s: value is empty", key)
			}
			switch kind {
			case KindEnv:
				return EnvVar(text), nil
			case KindDefault:
				return Default(text), nil
			case KindFile:
				return File(text), nil
			default:
				return HTTP(text), nil
			}
		case KindUnlocked:
			index, err := intValue(value)
			if err != nil {
				return Descriptor{}, fmt.Errorf("%s: %w", key, err)
			}
			if index < 0 {
				return Descriptor{}, fmt.Errorf("%s: index must not be negative, got %d", key, index)
			}
			return Unlocked(index), nil
		case KindEphemeral:
			if value == nil {
				return Ephemeral(map[string]any{}), nil
			}
			options, ok := value.(map[string]any)
			if !ok {
				return Descriptor{}, fmt.Errorf("%s: options must be an object, got %T", key, value)
			}
			return Ephemeral(normalizeNumbers(options)), nil
		}
	}
	return Descriptor{}, fmt.Errorf("unreachable")
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case int, int64, uint64, float64:
		return fmt.Sprint(numberValue(t)), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}

func intValue(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("expected an integer, got %v", t)
		}
		return int(t), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

// numberValue collapses whole floats (what encoding/json produces) to int64
// so 80000000 does not render as 8e+07.
func numberValue(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return v
}

func normalizeNumbers(options map[string]any) map[string]any {
	out := make(map[string]any, len(options))
	for k, v := range options {
		out[k] = numberValue(v)
	}
	return out
}

// UnmarshalJSON decodes the single-key object form.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode source: %w", err)
	}
	parsed, err := fromMap(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalYAML decodes the single-key mapping form.
func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: source must be a mapping", node.Line)
	}
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: decode source: %w", node.Line, err)
	}
	parsed, err := fromMap(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = parsed
	return nil
}

// MarshalJSON writes the single-key object form back out.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toMap())
}

// MarshalYAML writes the single-key mapping form back out.
func (d Descriptor) MarshalYAML() (any, error) {
	return d.toMap(), nil
}

func (d Descriptor) toMap() map[string]any {
	switch d.Kind {
	case KindEnv:
		return map[string]any{"env": d.Name}
	case KindDefault:
		return map[string]any{"default": d.Value}
	case KindFile:
		return map[string]any{"file": d.Path}
	case KindHTTP:
		return map[string]any{"http": d.URL}
	case KindUnlocked:
		return map[string]any{"unlocked": d.Index}
	case KindEphemeral:
		options := d.Options
		if options == nil {
			options = map[string]any{}
		}
		return map[string]any{"ephemeral": options}
	default:
		return map[string]any{}
	}
}

package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/theremotion/solfege"
)

// File is the on-disk schema. Every field is optional and applied on top of
// the defaults; preset selects the built-in preset the other preset fields
// modify.
type File struct {
	Handedness   *Handedness `json:"handedness,omitempty" yaml:"handedness,omitempty"`
	Fullscreen   *bool       `json:"fullscreen,omitempty" yaml:"fullscreen,omitempty"`
	HighPriority *bool       `json:"high_priority,omitempty" yaml:"high_priority,omitempty"`

	Preset    string        `json:"preset,omitempty" yaml:"preset,omitempty"`
	Name      string        `json:"name,omitempty" yaml:"name,omitempty"`
	Root      *string       `json:"root,omitempty" yaml:"root,omitempty"`
	Scale     *string       `json:"scale,omitempty" yaml:"scale,omitempty"`
	Low       *solfege.Note `json:"low,omitempty" yaml:"low,omitempty"`
	High      *solfege.Note `json:"high,omitempty" yaml:"high,omitempty"`
	Chord     []int         `json:"chord,omitempty" yaml:"chord,omitempty"`
	Window    *int          `json:"window,omitempty" yaml:"window,omitempty"`
	Drone     *string       `json:"drone,omitempty" yaml:"drone,omitempty"`
	SubVolume *float32      `json:"sub_volume,omitempty" yaml:"sub_volume,omitempty"`
	Supersaw  *float32      `json:"supersaw,omitempty" yaml:"supersaw,omitempty"`
}

type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return 0, fault.New(
		fmt.Sprintf("unsupported settings extension %q", filepath.Ext(path)),
		fmsg.WithDesc("unsupported settings format", "Settings files must end in .json, .yaml or .yml"),
		ftag.With(ftag.InvalidArgument),
	)
}

// Load reads a JSON or YAML settings file, chosen by extension, and applies
// it on top of Default.
func Load(path string) (Settings, error) {
	fm, err := formatOf(path)
	if err != nil {
		return Settings{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		tag := ftag.Internal
		if os.IsNotExist(err) {
			tag = ftag.NotFound
		}
		return Settings{}, fault.Wrap(err,
			fmsg.WithDesc("read settings", fmt.Sprintf("Could not read settings file %s", path)),
			ftag.With(tag),
		)
	}

	var f File
	if fm == formatYAML {
		err = yaml.Unmarshal(b, &f)
	} else {
		err = json.Unmarshal(b, &f)
	}
	if err != nil {
		return Settings{}, fault.Wrap(err,
			fmsg.WithDesc("parse settings", fmt.Sprintf("Settings file %s is malformed", path)),
			ftag.With(ftag.InvalidArgument),
		)
	}

	s := Default()
	if err := ApplyFile(&s, &f); err != nil {
		return Settings{}, fault.Wrap(err,
			fmsg.WithDesc("invalid settings", fmt.Sprintf("Settings file %s: %v", path, err)),
			ftag.With(ftag.InvalidArgument),
		)
	}
	return s, nil
}

// Save writes s to path in the format chosen by extension.
func Save(path string, s Settings) error {
	fm, err := formatOf(path)
	if err != nil {
		return err
	}
	f := ToFile(s)
	var b []byte
	if fm == formatYAML {
		b, err = yaml.Marshal(&f)
	} else {
		b, err = json.MarshalIndent(&f, "", "  ")
		b = append(b, '\n')
	}
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode settings"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("create settings directory", "Could not create the settings directory"))
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("write settings", fmt.Sprintf("Could not write settings file %s", path)))
	}
	return nil
}

// Marshal encodes s as YAML in the file schema.
func Marshal(s Settings) ([]byte, error) {
	f := ToFile(s)
	b, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("encode settings"))
	}
	return b, nil
}

// Parse decodes settings text, YAML or JSON, and applies it on top of
// Default.
func Parse(b []byte) (Settings, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Settings{}, fault.Wrap(err,
			fmsg.WithDesc("parse settings", "Settings text is malformed"),
			ftag.With(ftag.InvalidArgument),
		)
	}
	s := Default()
	if err := ApplyFile(&s, &f); err != nil {
		return Settings{}, fault.Wrap(err,
			fmsg.WithDesc("invalid settings", fmt.Sprintf("Invalid settings: %v", err)),
			ftag.With(ftag.InvalidArgument),
		)
	}
	return s, nil
}

// ApplyFile applies a parsed settings file onto dst and validates the result.
func ApplyFile(dst *Settings, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination settings")
	}
	if f == nil {
		return nil
	}

	if f.Handedness != nil {
		dst.System.Handedness = *f.Handedness
	}
	if f.Fullscreen != nil {
		dst.System.Fullscreen = *f.Fullscreen
	}
	if f.HighPriority != nil {
		dst.System.HighPriority = *f.HighPriority
	}

	p := dst.Preset.Clone()
	if f.Preset != "" {
		base, ok := LookupPreset(f.Preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", f.Preset)
		}
		p = base
	}
	if f.Name != "" {
		p.Name = strings.TrimSpace(f.Name)
	}
	if f.Root != nil {
		root, err := parseRoot(*f.Root)
		if err != nil {
			return err
		}
		p.Root = root
	}
	if f.Scale != nil {
		p.Scale = strings.ToLower(strings.TrimSpace(*f.Scale))
	}
	if f.Low != nil {
		p.Low = *f.Low
	}
	if f.High != nil {
		p.High = *f.High
	}
	if f.Chord != nil {
		p.Chord = append([]int(nil), f.Chord...)
	}
	if f.Window != nil {
		p.WindowSize = *f.Window
	}
	if f.Drone != nil {
		v := strings.TrimSpace(*f.Drone)
		if v == "" || strings.EqualFold(v, "none") {
			p.Drone = nil
		} else {
			n, err := solfege.ParseNote(v)
			if err != nil {
				return fmt.Errorf("drone: %w", err)
			}
			p.Drone = &n
		}
	}
	if f.SubVolume != nil {
		p.SubVolume = *f.SubVolume
	}
	if f.Supersaw != nil {
		p.Supersaw = *f.Supersaw
	}

	if err := p.Validate(); err != nil {
		return err
	}
	dst.Preset = p
	return nil
}

// ToFile returns the file form of s with every field set.
func ToFile(s Settings) File {
	p := s.Preset
	root := solfege.PitchClassName(p.Root)
	drone := "none"
	if p.Drone != nil {
		drone = p.Drone.String()
	}
	return File{
		Handedness:   &s.System.Handedness,
		Fullscreen:   &s.System.Fullscreen,
		HighPriority: &s.System.HighPriority,
		Name:         p.Name,
		Root:         &root,
		Scale:        &p.Scale,
		Low:          &p.Low,
		High:         &p.High,
		Chord:        append([]int(nil), p.Chord...),
		Window:       &p.WindowSize,
		Drone:        &drone,
		SubVolume:    &p.SubVolume,
		Supersaw:     &p.Supersaw,
	}
}

func parseRoot(v string) (int, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		if n < 0 || n > 11 {
			return 0, fmt.Errorf("root must be a pitch class 0..11, got %d", n)
		}
		return n, nil
	}
	return solfege.ParsePitchClass(v)
}

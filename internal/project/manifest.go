package project

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"conswol/internal/buildpipeline"
	"conswol/internal/diag"
	"conswol/internal/matcher"
)

var (
	// ErrNotFound is reported when no manifest governs the start directory.
	ErrNotFound = errors.New("project manifest not found")
	// ErrInvalid marks manifests that decode but violate the schema.
	ErrInvalid = errors.New("invalid project manifest")
)

// Project is the loaded, read-only project configuration.
type Project struct {
	// Path is the manifest file; Root the directory holding it.
	Path string
	Root string
	// Dir is the project directory resolved against Root.
	Dir string

	Build *buildpipeline.CommandConfig
	// Run is loaded for display only; conswol never launches it.
	Run *buildpipeline.CommandConfig

	MatcherSpec *matcher.Spec
	// Matcher is nil when no problem matcher is configured.
	Matcher *matcher.Matcher
}

type manifestFile struct {
	Dir            string        `toml:"dir"`
	BuildCmd       *commandTable `toml:"build_cmd"`
	RunCmd         *commandTable `toml:"run_cmd"`
	ProblemMatcher *matcherTable `toml:"problem_matcher"`
}

type commandTable struct {
	WorkingDir string   `toml:"working_dir"`
	Command    string   `toml:"command"`
	Args       []string `toml:"args"`
	Env        []string `toml:"env"`
}

type matcherTable struct {
	Pattern     string            `toml:"pattern"`
	File        int               `toml:"file"`
	Line        int               `toml:"line"`
	Column      int               `toml:"column"`
	Severity    int               `toml:"severity"`
	SeverityMap map[string]string `toml:"severity_map"`
}

// Load decodes the manifest at path and compiles its problem matcher, so a
// malformed pattern is reported once here rather than on every build.
func Load(path string) (*Project, error) {
	var file manifestFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to parse TOML", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, invalid(path, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if !meta.IsDefined("dir") || strings.TrimSpace(file.Dir) == "" {
		return nil, invalid(path, "missing dir")
	}

	root := filepath.Dir(path)
	p := &Project{
		Path: path,
		Root: root,
		Dir:  resolve(root, file.Dir),
	}

	if file.BuildCmd != nil {
		cmd, err := file.BuildCmd.toConfig(path, "build_cmd", p.Dir)
		if err != nil {
			return nil, err
		}
		p.Build = &cmd
	}
	if file.RunCmd != nil {
		cmd, err := file.RunCmd.toConfig(path, "run_cmd", p.Dir)
		if err != nil {
			return nil, err
		}
		p.Run = &cmd
	}
	if file.ProblemMatcher != nil {
		spec, err := file.ProblemMatcher.toSpec(path, meta)
		if err != nil {
			return nil, err
		}
		m, err := matcher.Compile(spec)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: [problem_matcher]", path)
		}
		p.MatcherSpec = &spec
		p.Matcher = m
	}
	return p, nil
}

func (c *commandTable) toConfig(path, table, projectDir string) (buildpipeline.CommandConfig, error) {
	if strings.TrimSpace(c.Command) == "" {
		return buildpipeline.CommandConfig{}, invalid(path, "missing [%s].command", table)
	}
	for _, kv := range c.Env {
		if !strings.Contains(kv, "=") {
			return buildpipeline.CommandConfig{}, invalid(path, "[%s].env entry %q is not KEY=VALUE", table, kv)
		}
	}
	wd := c.WorkingDir
	if wd == "" {
		wd = buildpipeline.DefaultWorkingDir
	}
	return buildpipeline.CommandConfig{
		WorkingDir: resolve(projectDir, wd),
		Command:    c.Command,
		Args:       c.Args,
		Env:        c.Env,
	}, nil
}

func (m *matcherTable) toSpec(path string, meta toml.MetaData) (matcher.Spec, error) {
	if !meta.IsDefined("problem_matcher", "pattern") {
		return matcher.Spec{}, invalid(path, "missing [problem_matcher].pattern")
	}
	spec := matcher.Spec{
		Pattern:       m.Pattern,
		FileGroup:     m.File,
		LineGroup:     m.Line,
		ColGroup:      m.Column,
		SeverityGroup: m.Severity,
	}
	if meta.IsDefined("problem_matcher", "severity_map") {
		spec.SeverityMap = make(map[string]diag.Severity, len(m.SeverityMap))
		for token, value := range m.SeverityMap {
			sev, err := diag.ParseSeverity(value)
			if err != nil {
				return matcher.Spec{}, invalid(path, "[problem_matcher.severity_map].%s: %v", token, err)
			}
			spec.SeverityMap[token] = sev
		}
	}
	return spec, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func invalid(path, format string, args ...any) error {
	return errors.Mark(errors.Newf("%s: "+format, append([]any{path}, args...)...), ErrInvalid)
}

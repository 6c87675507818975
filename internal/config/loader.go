package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a process manifest from the provided path, validates it
// against the embedded schema and resolves entry environments.
func Load(path string) (*Procfile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve procfile path: %w", err)
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("open procfile: %w", err)
	}

	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	decoder := yaml.NewDecoder(strings.NewReader(string(raw)))
	decoder.KnownFields(true)
	var doc Procfile
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	baseDir := filepath.Dir(absPath)
	for name, entry := range doc.Entries {
		if entry == nil {
			continue
		}
		entry.Cwd = resolveCwd(baseDir, os.ExpandEnv(entry.Cwd))

		var inlineEnv map[string]string
		if len(entry.Env) > 0 {
			inlineEnv = make(map[string]string, len(entry.Env))
			for k, v := range entry.Env {
				inlineEnv[k] = os.ExpandEnv(v)
			}
		}

		var fileEnv map[string]string
		if entry.EnvFromFile != "" {
			expanded := os.ExpandEnv(entry.EnvFromFile)
			if !filepath.IsAbs(expanded) {
				expanded = filepath.Clean(filepath.Join(baseDir, expanded))
			}
			entry.EnvFromFile = expanded

			fileEnv, err = loadEnvFile(expanded)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", entryField(name, "envFromFile"), err)
			}
		}

		merged := mergeEnv(fileEnv, inlineEnv)
		entry.Env = merged
	}

	if err := doc.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}

func resolveCwd(base, cwd string) string {
	if cwd == "" {
		return ""
	}
	if filepath.IsAbs(cwd) {
		return filepath.Clean(cwd)
	}
	return filepath.Clean(filepath.Join(base, cwd))
}

// mergeEnv layers inline values over file values; inline wins on conflict.
func mergeEnv(fileEnv, inlineEnv map[string]string) map[string]string {
	if len(fileEnv) == 0 && len(inlineEnv) == 0 {
		return nil
	}
	merged := make(map[string]string, len(fileEnv)+len(inlineEnv))
	for k, v := range fileEnv {
		merged[k] = v
	}
	for k, v := range inlineEnv {
		merged[k] = v
	}
	return merged
}

func loadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	values := make(map[string]string)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if strings.HasPrefix(raw, "export ") {
			raw = strings.TrimSpace(raw[len("export "):])
		}
		sep := strings.IndexRune(raw, '=')
		if sep <= 0 {
			return nil, fmt.Errorf("load env file %q: invalid line %d", path, lineNo)
		}
		key := strings.TrimSpace(raw[:sep])
		if key == "" {
			return nil, fmt.Errorf("load env file %q: invalid key on line %d", path, lineNo)
		}
		value := strings.TrimSpace(raw[sep+1:])
		literal := false
		if strings.HasPrefix(value, "\"") {
			if len(value) < 2 || value[len(value)-1] != '"' {
				return nil, fmt.Errorf("load env file %q: unmatched quote on line %d", path, lineNo)
			}
			unquoted, err := strconv.Unquote(value)
			if err != nil {
				return nil, fmt.Errorf("load env file %q: parse value for %s on line %d: %w", path, key, lineNo, err)
			}
			value = unquoted
		} else if strings.HasPrefix(value, "'") {
			if len(value) < 2 || value[len(value)-1] != '\'' {
				return nil, fmt.Errorf("load env file %q: unmatched quote on line %d", path, lineNo)
			}
			// Single quotes suppress expansion.
			value = value[1 : len(value)-1]
			literal = true
		} else if comment := strings.IndexRune(value, '#'); comment >= 0 {
			value = strings.TrimSpace(value[:comment])
		}
		if !literal {
			value = os.ExpandEnv(value)
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	return values, nil
}

func entryField(entry, field string) string {
	return fmt.Sprintf("entries.%s.%s", entry, field)
}

// ApplyDefaults merges manifest defaults onto entries.
func (p *Procfile) ApplyDefaults() error {
	for name, entry := range p.Entries {
		if entry == nil {
			return fmt.Errorf("entry %q is null", name)
		}
		if entry.Restart == nil && p.Defaults.Restart != nil {
			entry.Restart = p.Defaults.Restart.Clone()
		}
	}
	return nil
}

// Validate enforces manifest invariants the schema cannot express.
func (p *Procfile) Validate() error {
	if p.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(p.Entries) == 0 {
		return fmt.Errorf("at least one entry must be defined")
	}
	for name, entry := range p.Entries {
		if len(entry.Command) == 0 {
			return fmt.Errorf("entry %s requires a command", name)
		}
		if entry.Restart != nil {
			switch entry.Restart.Policy {
			case "", "never", "on-failure", "always":
			default:
				return fmt.Errorf("entry %s has invalid restart policy %q", name, entry.Restart.Policy)
			}
			if b := entry.Restart.Backoff; b != nil && b.Factor < 0 {
				return fmt.Errorf("entry %s backoff factor must not be negative", name)
			}
		}
	}
	return nil
}

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/sourceplane/liteparam/internal/model"
)

// Placeholders are rewritten into template actions using delimiters that do not
// collide with common model languages.
const (
	leftAction  = "⟦"
	rightAction = "⟧"
)

var identifierPattern = `([A-Za-z_][A-Za-z0-9_]*)`

// Template is the default adapter: it substitutes ${name} (or $name) placeholders
// and extracts outputs by running the configured shell commands.
type Template struct {
	config    *model.ModelConfig
	modelPath string
	isDir     bool
	known     map[string]bool

	delimited *regexp.Regexp
	bare      *regexp.Regexp

	mu            sync.Mutex
	templateCache map[string]*template.Template
}

// NewTemplate creates a template adapter for the model at modelPath (a file or a
// directory of files). variables are the names the sweep declares.
func NewTemplate(cfg *model.ModelConfig, modelPath string, variables []string) (*Template, error) {
	if cfg == nil {
		return nil, fmt.Errorf("model config cannot be nil")
	}
	info, err := os.Stat(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", modelPath, err)
	}

	prefix := regexp.QuoteMeta(cfg.VarPrefix)
	t := &Template{
		config:        cfg,
		modelPath:     modelPath,
		isDir:         info.IsDir(),
		known:         make(map[string]bool, len(variables)),
		bare:          regexp.MustCompile(prefix + identifierPattern),
		templateCache: make(map[string]*template.Template),
	}
	if delim := []rune(cfg.Delim); len(delim) == 2 {
		left, right := regexp.QuoteMeta(string(delim[0])), regexp.QuoteMeta(string(delim[1]))
		t.delimited = regexp.MustCompile(prefix + left + `\s*` + identifierPattern + `\s*` + right)
	}
	for _, name := range variables {
		t.known[name] = true
	}

	// every model file is read and parsed up front so a broken model fails the
	// run instead of every case
	files, err := t.sourceFiles()
	if err != nil {
		return nil, err
	}
	for _, rel := range files {
		if _, err := t.compiled(rel); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ID returns the model identifier
func (t *Template) ID() string {
	return t.config.ID
}

// Render writes every model file, substituted with the case values, into dir
func (t *Template) Render(ctx context.Context, c *model.Case, dir string) (string, error) {
	files, err := t.sourceFiles()
	if err != nil {
		return "", err
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tmpl, err := t.compiled(rel)
		if err != nil {
			return "", err
		}

		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}

		var buf strings.Builder
		if err := tmpl.Execute(&buf, c.Values); err != nil {
			return "", fmt.Errorf("failed to render %s: %w", rel, err)
		}
		if err := os.WriteFile(target, []byte(buf.String()), 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", target, err)
		}
	}

	if t.isDir {
		return dir, nil
	}
	return filepath.Join(dir, files[0]), nil
}

// Parse runs each output command inside dir and decodes its stdout
func (t *Template) Parse(ctx context.Context, dir string) (map[string]any, error) {
	names := make([]string, 0, len(t.config.Output))
	for name := range t.config.Output {
		names = append(names, name)
	}
	sort.Strings(names)

	outputs := make(map[string]any, len(names))
	for _, name := range names {
		cmd := exec.CommandContext(ctx, "sh", "-c", t.config.Output[name])
		cmd.Dir = dir

		raw, err := cmd.Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
				return nil, fmt.Errorf("output %s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
			}
			return nil, fmt.Errorf("output %s: %w", name, err)
		}

		value, err := decodeOutput(raw)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", name, err)
		}
		outputs[name] = value
	}

	return outputs, nil
}

// sourceFiles lists model files relative to the model root
func (t *Template) sourceFiles() ([]string, error) {
	if !t.isDir {
		return []string{filepath.Base(t.modelPath)}, nil
	}

	var files []string
	err := filepath.WalkDir(t.modelPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(t.modelPath, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk model directory %s: %w", t.modelPath, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("model directory %s is empty", t.modelPath)
	}
	sort.Strings(files)
	return files, nil
}

// compiled returns the parsed template for a model file.
// Templates are cached so each file is parsed once per adapter.
func (t *Template) compiled(rel string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tmpl, ok := t.templateCache[rel]; ok {
		return tmpl, nil
	}

	path := t.modelPath
	if t.isDir {
		path = filepath.Join(t.modelPath, rel)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}

	tmpl, err := template.New(rel).
		Delims(leftAction, rightAction).
		Funcs(template.FuncMap{"value": lookupValue}).
		Parse(t.rewrite(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid model template %s: %w", rel, err)
	}

	t.templateCache[rel] = tmpl
	return tmpl, nil
}

// rewrite turns placeholders into template actions. Delimited placeholders always
// bind (and fail on unknown names); bare ones bind only to declared variables.
func (t *Template) rewrite(text string) string {
	action := func(name string) string {
		return fmt.Sprintf(`%svalue . %q%s`, leftAction, name, rightAction)
	}

	if t.delimited != nil {
		text = t.delimited.ReplaceAllStringFunc(text, func(m string) string {
			return action(t.delimited.FindStringSubmatch(m)[1])
		})
	}
	return t.bare.ReplaceAllStringFunc(text, func(m string) string {
		name := t.bare.FindStringSubmatch(m)[1]
		if !t.known[name] {
			return m
		}
		return action(name)
	})
}

func lookupValue(values map[string]any, name string) (string, error) {
	v, ok := values[name]
	if !ok {
		return "", fmt.Errorf("unknown variable %s", name)
	}
	return model.DisplayValue(v), nil
}

// decodeOutput interprets command output as JSON, then as a number, else as text
func decodeOutput(raw []byte) (any, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, fmt.Errorf("command produced no output")
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		return decoded, nil
	}
	// nan and inf stay text, JSON has no form for them
	if f, err := strconv.ParseFloat(text, 64); err == nil && model.IsFinite(f) {
		return f, nil
	}
	return text, nil
}

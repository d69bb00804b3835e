package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/rolodexhq/rolodex/pkg/observability"
)

// Template names resolved by the renderer. Files in the template
// directory override the built-ins by name, e.g. verification.html.
const (
	TemplateVerification = "verification"
	TemplateReset        = "reset"
	TemplateBirthday     = "birthday"
)

var builtinTemplates = map[string]string{
	TemplateVerification: `<html>
<body>
  <p>Hi {{.Username}},</p>
  <p>Welcome! Please confirm your email address by following the link below.</p>
  <p><a href="{{.Link}}">Confirm email</a></p>
  <p>The link is valid for 7 days. If you did not sign up, ignore this message.</p>
</body>
</html>`,
	TemplateReset: `<html>
<body>
  <p>Hi {{.Username}},</p>
  <p>A password reset was requested for your account. Follow the link below to apply it.</p>
  <p><a href="{{.Link}}">Reset password</a></p>
  <p>The link expires shortly. If you did not request a reset, ignore this message.</p>
</body>
</html>`,
	TemplateBirthday: `<html>
<body>
  <p>Hi {{.Username}},</p>
  <p>These contacts have a birthday today:</p>
  <ul>
  {{range .Celebrants}}<li>{{.FirstName}} {{.LastName}}</li>
  {{end}}</ul>
</body>
</html>`,
}

// TemplateSet holds the active templates and reloads overrides from a
// directory when its files change
type TemplateSet struct {
	dir    string
	logger *observability.Logger

	mu        sync.RWMutex
	templates map[string]*template.Template

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewTemplateSet parses the built-ins and, when dir is non-empty, applies
// overrides from it and starts watching for changes
func NewTemplateSet(dir string, logger *observability.Logger) (*TemplateSet, error) {
	ts := &TemplateSet{
		dir:       dir,
		logger:    logger,
		templates: make(map[string]*template.Template),
		done:      make(chan struct{}),
	}

	for name, text := range builtinTemplates {
		tmpl, err := template.New(name).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse builtin template %s: %w", name, err)
		}
		ts.templates[name] = tmpl
	}

	if dir == "" {
		return ts, nil
	}

	if err := ts.loadDir(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create template watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch template directory: %w", err)
	}
	ts.watcher = watcher
	go ts.watch()

	return ts, nil
}

// loadDir applies every .html file in the directory as an override
func (ts *TemplateSet) loadDir() error {
	entries, err := os.ReadDir(ts.dir)
	if err != nil {
		return fmt.Errorf("failed to read template directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		ts.loadFile(filepath.Join(ts.dir, entry.Name()))
	}
	return nil
}

// loadFile parses one override; a broken file keeps the previous template
func (ts *TemplateSet) loadFile(path string) {
	name := strings.TrimSuffix(filepath.Base(path), ".html")

	text, err := os.ReadFile(path)
	if err != nil {
		ts.logger.WithError(err).WithField("template", name).Warn("failed to read template override")
		return
	}

	tmpl, err := template.New(name).Parse(string(text))
	if err != nil {
		ts.logger.WithError(err).WithField("template", name).Warn("template override failed to parse, keeping previous version")
		return
	}

	ts.mu.Lock()
	ts.templates[name] = tmpl
	ts.mu.Unlock()

	ts.logger.WithField("template", name).Info("template loaded")
}

func (ts *TemplateSet) watch() {
	for {
		select {
		case event, ok := <-ts.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".html") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				ts.loadFile(event.Name)
			}
		case err, ok := <-ts.watcher.Errors:
			if !ok {
				return
			}
			ts.logger.WithError(err).Warn("template watcher error")
		case <-ts.done:
			return
		}
	}
}

// Render executes the named template
func (ts *TemplateSet) Render(name string, data interface{}) (string, error) {
	ts.mu.RLock()
	tmpl, ok := ts.templates[name]
	ts.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown template: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Close stops the watcher
func (ts *TemplateSet) Close() error {
	close(ts.done)
	if ts.watcher != nil {
		return ts.watcher.Close()
	}
	return nil
}

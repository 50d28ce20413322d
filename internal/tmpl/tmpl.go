/*
Package tmpl provides template processing for releash.
*/
package tmpl

import (
	"bytes"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"
)

// legacyPlaceholder matches the single-brace form ({version}, {path}) used by
// older release scripts.
var legacyPlaceholder = regexp.MustCompile(`\{([a-z_]+)\}`)

var legacyFields = map[string]string{
	"version": "Version",
	"tag":     "Tag",
	"package": "Package",
	"path":    "Path",
	"major":   "Major",
	"minor":   "Minor",
	"patch":   "Patch",
}

// Context provides template context and rendering
type Context struct {
	data map[string]interface{}
}

// New creates a new template context
func New(projectName string, variables map[string]interface{}) *Context {
	ctx := &Context{
		data: make(map[string]interface{}),
	}
	ctx.init(projectName, variables)
	return ctx
}

// init initializes the template data
func (c *Context) init(projectName string, variables map[string]interface{}) {
	now := time.Now()

	c.data["ProjectName"] = projectName
	c.data["Date"] = now.Format(time.RFC3339)
	c.data["Now"] = now
	c.data["Timestamp"] = now.Unix()

	env := make(map[string]string)
	for _, e := range os.Environ() {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	c.data["Env"] = env

	// Custom variables from config
	for k, v := range variables {
		c.data[k] = v
	}
}

// WithRelease returns a copy of the context carrying package and version data.
func (c *Context) WithRelease(pkg, path, version, tag string, major, minor, patch uint64) *Context {
	newCtx := &Context{
		data: make(map[string]interface{}, len(c.data)+7),
	}
	for k, v := range c.data {
		newCtx.data[k] = v
	}

	newCtx.data["Package"] = pkg
	newCtx.data["Path"] = path
	newCtx.data["Version"] = version
	newCtx.data["Tag"] = tag
	newCtx.data["Major"] = major
	newCtx.data["Minor"] = minor
	newCtx.data["Patch"] = patch
	return newCtx
}

// Apply applies the template to a string
func (c *Context) Apply(tmpl string) (string, error) {
	t, err := Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, c.data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// Set sets a value in the context
func (c *Context) Set(key string, value interface{}) {
	c.data[key] = value
}

// Get gets a value from the context
func (c *Context) Get(key string) string {
	if val, ok := c.data[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// Parse normalizes legacy placeholders and parses the result as a template.
func Parse(tmpl string) (*template.Template, error) {
	return template.New("").Funcs(funcs()).Option("missingkey=error").Parse(Normalize(tmpl))
}

// Normalize rewrites legacy {name} placeholders to {{ .Name }}. Unknown names
// and anything already inside {{ }} are left alone.
func Normalize(tmpl string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}

	var out strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			out.WriteString(replaceLegacy(rest))
			break
		}
		out.WriteString(replaceLegacy(rest[:start]))
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			out.WriteString(rest[start:])
			break
		}
		out.WriteString(rest[start : start+end+2])
		rest = rest[start+end+2:]
	}
	return out.String()
}

func replaceLegacy(s string) string {
	return legacyPlaceholder.ReplaceAllStringFunc(s, func(m string) string {
		field, ok := legacyFields[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return "{{ ." + field + " }}"
	})
}

// funcs returns the template function map
func funcs() template.FuncMap {
	return template.FuncMap{
		"replace":    strings.ReplaceAll,
		"tolower":    strings.ToLower,
		"toupper":    strings.ToUpper,
		"trim":       strings.TrimSpace,
		"trimprefix": strings.TrimPrefix,
		"trimsuffix": strings.TrimSuffix,
		"split":      strings.Split,
		"join":       strings.Join,

		"env": os.Getenv,

		"default": func(def, val interface{}) interface{} {
			if val == nil || val == "" {
				return def
			}
			return val
		},
	}
}

// Data returns the template data
func (c *Context) Data() map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range c.data {
		result[k] = v
	}
	return result
}

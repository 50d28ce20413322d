package condaforge

import (
	"fmt"
	"regexp"
)

// conda recipes are jinja templated YAML, so they are edited as text.
var (
	jinjaVersionRe = regexp.MustCompile(`(?m)^(\{%-?\s*set\s+version\s*=\s*["'])([^"']*)(["']\s*-?%\})`)
	jinjaSHA256Re  = regexp.MustCompile(`(?m)^(\{%-?\s*set\s+sha256\s*=\s*["'])([^"']*)(["']\s*-?%\})`)
	plainVersionRe = regexp.MustCompile(`(?m)^([ \t]+version:[ \t]*["']?)([0-9][^"'\s]*)(["']?[ \t]*)$`)
	plainSHA256Re  = regexp.MustCompile(`(?m)^([ \t]*sha256:[ \t]*)([0-9a-fA-F]{64})([ \t]*)$`)
	buildSectionRe = regexp.MustCompile(`(?m)^build:[ \t]*$`)
	buildNumberRe  = regexp.MustCompile(`(?m)^([ \t]+number:[ \t]*)(\d+)`)
	topLevelKeyRe  = regexp.MustCompile(`(?m)^\S`)
)

// RecipeChange describes an edit of a recipe.
type RecipeChange struct {
	OldVersion string
	NewVersion string
	SHA256     string
	// BuildNumberReset is true when build.number was set back to 0
	BuildNumberReset bool
}

// Changed reports whether the version moved.
func (c RecipeChange) Changed() bool {
	return c.OldVersion != c.NewVersion
}

// UpdateRecipe sets the version and source digest in a meta.yaml. The build
// number is reset to 0 when the version changes.
func UpdateRecipe(content []byte, version, sha256 string) ([]byte, RecipeChange, error) {
	change := RecipeChange{NewVersion: version, SHA256: sha256}

	out, old, ok := replaceFirst(jinjaVersionRe, content, version)
	if !ok {
		out, old, ok = replaceFirst(plainVersionRe, content, version)
	}
	if !ok {
		return nil, change, fmt.Errorf("recipe has no version to update")
	}
	change.OldVersion = old

	digestSet := false
	if next, _, ok := replaceFirst(jinjaSHA256Re, out, sha256); ok {
		out = next
		digestSet = true
	}
	if plainSHA256Re.Match(out) {
		out = plainSHA256Re.ReplaceAll(out, []byte("${1}"+sha256+"${3}"))
		digestSet = true
	}
	if !digestSet {
		return nil, change, fmt.Errorf("recipe has no sha256 to update")
	}

	if change.Changed() {
		var reset bool
		out, reset = resetBuildNumber(out)
		change.BuildNumberReset = reset
	}

	return out, change, nil
}

// replaceFirst replaces group 2 of the first match of re with value and
// returns the previous value.
func replaceFirst(re *regexp.Regexp, content []byte, value string) ([]byte, string, bool) {
	loc := re.FindSubmatchIndex(content)
	if loc == nil {
		return content, "", false
	}
	old := string(content[loc[4]:loc[5]])
	out := make([]byte, 0, len(content)+len(value))
	out = append(out, content[:loc[4]]...)
	out = append(out, value...)
	out = append(out, content[loc[5]:]...)
	return out, old, true
}

func resetBuildNumber(content []byte) ([]byte, bool) {
	section := buildSectionRe.FindIndex(content)
	if section == nil {
		return content, false
	}
	rest := content[section[1]:]
	// The build block ends at the next unindented line.
	if end := topLevelKeyRe.FindIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	loc := buildNumberRe.FindSubmatchIndex(rest)
	if loc == nil {
		return content, false
	}
	if string(rest[loc[4]:loc[5]]) == "0" {
		return content, false
	}

	base := section[1]
	out := make([]byte, 0, len(content))
	out = append(out, content[:base+loc[4]]...)
	out = append(out, '0')
	out = append(out, content[base+loc[5]:]...)
	return out, true
}

// Package language maps GitHub language names to the short codes stored on
// projects and challenges.
package language

import "sort"

var names = map[string]string{
	"js":    "JavaScript",
	"ts":    "TypeScript",
	"rs":    "Rust",
	"c":     "C",
	"java":  "Java",
	"cpp":   "C++",
	"go":    "Go",
	"lua":   "Lua",
	"php":   "PHP",
	"py":    "Python",
	"rb":    "Ruby",
	"cs":    "C-Sharp",
	"scala": "Scala",
}

var codes = func() map[string]string {
	m := make(map[string]string, len(names))
	for code, name := range names {
		m[name] = code
	}
	// GitHub reports C# with the symbol.
	m["C#"] = "cs"
	return m
}()

// Code returns the short code for a GitHub language name, or "" when the
// language is not in the table.
func Code(name string) string {
	return codes[name]
}

// Name returns the display name for a code, or "" when unknown.
func Name(code string) string {
	return names[code]
}

// Entry pairs a code with its display name.
type Entry struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

// Entries builds display entries for the given codes, sorted by name.
func Entries(codes []string) []Entry {
	entries := make([]Entry, 0, len(codes))
	for _, c := range codes {
		entries = append(entries, Entry{Language: c, Name: Name(c)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

package compiler

import (
	"regexp"
	"strings"
	"unicode"
)

// Sections of the plain-text definition format:
//
//	11#11
//	A = {1, #};
//	X = {v};
//	A1 = {1};
//	R = {"v#v->#"};
//
// The first line is the initial string. Set members are every character
// between the braces except whitespace and commas.
var (
	alphabetSection  = regexp.MustCompile(`A\s*=\s*\{([^}]*)\};`)
	variablesSection = regexp.MustCompile(`X\s*=\s*\{([^}]*)\};`)
	axiomsSection    = regexp.MustCompile(`A1\s*=\s*\{([^}]*)\};`)
	rulesSection     = regexp.MustCompile(`R\s*=\s*\{([^}]*)\};`)
	ruleEntry        = regexp.MustCompile(`"([^"]+)->([^"]+)"`)
)

// ParseText parses the plain-text definition format.
// Missing sections decode as empty sets; a missing rule section yields a
// system with no rules.
func ParseText(data string) *Source {
	src := &Source{
		Initial:   firstLine(data),
		Alphabet:  sectionChars(alphabetSection, data),
		Variables: sectionChars(variablesSection, data),
		Axioms:    sectionChars(axiomsSection, data),
	}

	if m := rulesSection.FindStringSubmatch(data); m != nil {
		for _, r := range ruleEntry.FindAllStringSubmatch(m[1], -1) {
			src.Rules = append(src.Rules, SourceRule{Pattern: r[1], Replacement: r[2]})
		}
	}

	return src
}

func firstLine(data string) string {
	if i := strings.IndexAny(data, "\r\n"); i >= 0 {
		return data[:i]
	}
	return data
}

func sectionChars(section *regexp.Regexp, data string) []string {
	m := section.FindStringSubmatch(data)
	if m == nil {
		return nil
	}
	var out []string
	for _, ch := range m[1] {
		if unicode.IsSpace(ch) || ch == ',' {
			continue
		}
		out = append(out, string(ch))
	}
	return out
}

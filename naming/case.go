package naming

import (
	"strings"
	"unicode"
)

// Words splits an identifier into words at underscores, hyphens, spaces and
// case transitions. "get_HTTPServer2" -> ["get", "HTTP", "Server2"].
func Words(s string) []string {
	var words []string
	runes := []rune(s)
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' || r == ':' || r == '.' {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		if unicode.IsUpper(r) {
			lowerBefore := unicode.IsLower(prev) || unicode.IsDigit(prev)
			acronymEnd := unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if lowerBefore || acronymEnd {
				flush(i)
				start = i
			}
		}
	}
	flush(len(runes))
	return words
}

// Pascal converts s to PascalCase: "greet_user" -> "GreetUser".
func Pascal(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(upperFirst(w))
	}
	return b.String()
}

// Camel converts s to camelCase: "first_name" -> "firstName".
func Camel(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(upperFirst(w))
	}
	return b.String()
}

// Kebab converts s to kebab-case: "GreetUser" -> "greet-user".
func Kebab(s string) string {
	return joinLower(Words(s), "-")
}

// Snake converts s to snake_case: "GreetUser" -> "greet_user".
func Snake(s string) string {
	return joinLower(Words(s), "_")
}

func joinLower(words []string, sep string) string {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, sep)
}

func upperFirst(w string) string {
	if w == "" {
		return w
	}
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

var csharpKeywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,
}

// CSharpIdent escapes name with '@' when it is a reserved C# keyword.
func CSharpIdent(name string) string {
	if csharpKeywords[name] {
		return "@" + name
	}
	return name
}

// IsCSharpKeyword reports whether name is reserved in C#.
func IsCSharpKeyword(name string) bool {
	return csharpKeywords[name]
}

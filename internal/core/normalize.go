// Package core implements command extraction and the allow/warn/block decision.
package core

import (
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"
)

// MaxNestingDepth bounds how many levels of `bash -c '...'` are unwrapped.
const MaxNestingDepth = 3

// ArgVector is one fully-resolved command invocation: program name plus arguments.
type ArgVector []string

// Program returns the base name of the invoked program, or "" for an empty vector.
func (v ArgVector) Program() string {
	if len(v) == 0 {
		return ""
	}
	return BaseName(v[0])
}

// Command wrappers stripped before classification.
var wrapperCommands = map[string]bool{
	"sudo":    true,
	"env":     true,
	"command": true,
	"nice":    true,
	"nohup":   true,
	"time":    true,
}

// sudo flags that take a separate value.
var sudoValueFlags = map[string]bool{
	"-u": true, "-g": true, "-C": true, "-D": true, "-h": true,
	"-p": true, "-r": true, "-t": true, "-U": true,
}

// Shell interpreters that accept a command string via -c.
var shellInterpreters = map[string]bool{
	"bash": true,
	"sh":   true,
	"zsh":  true,
	"dash": true,
	"ksh":  true,
}

// Shell control operators. Not quote-aware: an operator inside quotes still splits.
var shellOperatorPattern = regexp.MustCompile(`\s*(?:;|&&|\|\||\|)\s*`)

// BaseName strips any leading path from a program token (/usr/bin/git -> git).
func BaseName(token string) string {
	if idx := strings.LastIndex(token, "/"); idx >= 0 {
		return token[idx+1:]
	}
	return token
}

// SplitSegments splits a command string on ;, &&, || and |, discarding the operators.
func SplitSegments(command string) []string {
	if strings.TrimSpace(command) == "" {
		return nil
	}

	var segments []string
	for _, part := range shellOperatorPattern.Split(command, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// Tokenize splits one segment into words using POSIX quoting rules.
// Redirections and a lone & are kept as literal words so the flags after
// them are still seen. Malformed input (for example an unterminated quote)
// yields no tokens.
func Tokenize(segment string) []string {
	if strings.TrimSpace(segment) == "" {
		return nil
	}

	var tokens []string
	rest := []rune(segment)
	for len(rest) > 0 {
		parser := shellwords.NewParser()
		parser.ParseEnv = false
		parser.ParseBacktick = false
		words, err := parser.Parse(string(rest))
		if err != nil {
			return nil
		}
		tokens = append(tokens, words...)
		if parser.Position < 0 {
			break
		}

		// Position is the rune offset of the operator, or of the rune before a
		// > that follows a digit-led word (2>&1).
		end := parser.Position + 1
		for end < len(rest) && !isWordBreak(rest[end]) {
			end++
		}
		tokens = append(tokens, string(rest[parser.Position:end]))
		rest = rest[end:]
	}
	return tokens
}

func isWordBreak(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', '"', '\'':
		return true
	}
	return false
}

// StripWrappers removes leading wrapper invocations (sudo, env, nice, ...) and
// their own arguments, exposing the real command. The input is not modified.
func StripWrappers(tokens []string) []string {
	rest := tokens
	for len(rest) > 0 {
		wrapper := BaseName(rest[0])
		if !wrapperCommands[wrapper] {
			break
		}
		rest = rest[1:]

		switch wrapper {
		case "sudo":
			for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
				flag := rest[0]
				rest = rest[1:]
				if sudoValueFlags[flag] && len(rest) > 0 {
					rest = rest[1:]
				}
			}
		case "env":
			for len(rest) > 0 {
				if strings.Contains(rest[0], "=") {
					rest = rest[1:]
					continue
				}
				if strings.HasPrefix(rest[0], "-") {
					flag := rest[0]
					rest = rest[1:]
					if flag == "-u" && len(rest) > 0 {
						rest = rest[1:]
					}
					continue
				}
				break
			}
		case "nice":
			if len(rest) > 1 && rest[0] == "-n" {
				rest = rest[2:]
			} else if len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
				rest = rest[1:]
			}
		}
		// command, nohup and time consume only themselves.
	}

	out := make([]string, len(rest))
	copy(out, rest)
	return out
}

// NestedCommand returns the string passed to `<shell> -c`, if tokens are a
// shell interpreter invocation carrying one.
func NestedCommand(tokens []string) (string, bool) {
	if len(tokens) < 3 || !shellInterpreters[BaseName(tokens[0])] {
		return "", false
	}
	for i, tok := range tokens {
		if tok != "-c" {
			continue
		}
		if i+1 < len(tokens) && tokens[i+1] != "" {
			return tokens[i+1], true
		}
		return "", false
	}
	return "", false
}

// ExtractCommands reduces a command string to every argument vector reachable
// from it: across operators, through wrappers, and into nested shell -c strings.
// Vectors are returned in discovery order.
func ExtractCommands(command string) []ArgVector {
	return extract(command, 0)
}

func extract(command string, depth int) []ArgVector {
	if depth > MaxNestingDepth {
		return nil
	}

	var vectors []ArgVector
	for _, segment := range SplitSegments(command) {
		tokens := Tokenize(segment)
		if len(tokens) == 0 {
			continue
		}
		stripped := StripWrappers(tokens)
		if len(stripped) == 0 {
			continue
		}
		vectors = append(vectors, ArgVector(stripped))

		if nested, ok := NestedCommand(stripped); ok {
			vectors = append(vectors, extract(nested, depth+1)...)
		}
	}
	return vectors
}

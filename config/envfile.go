package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// EnvLine is one KEY=value assignment of an env file
type EnvLine struct {
	Key string
	Val string
}

// ParseEnvFile reads a dotenv style file. A missing file yields no lines.
func ParseEnvFile(filename string) ([]EnvLine, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading env file %s", filename)
	}
	return ParseEnvBuffer(buf), nil
}

// ParseEnvBuffer parses KEY=value lines. Blank lines and # comments are skipped,
// quotes around values are removed and ${NAME} or ${NAME:-default} refer to
// earlier lines of the same buffer.
func ParseEnvBuffer(buf []byte) []EnvLine {
	var lines []EnvLine
	seen := make(map[string]string)
	for _, line := range strings.Split(string(buf), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, val, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		val = interpolate(dequote(strings.TrimSpace(val)), seen)
		seen[key] = val
		lines = append(lines, EnvLine{Key: key, Val: val})
	}
	return lines
}

// ApplyEnvFile exports the TIZENWS_* lines of the file into the process
// environment. Variables that are already set keep their value.
func ApplyEnvFile(filename string) error {
	lines, err := ParseEnvFile(filename)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if !strings.HasPrefix(line.Key, EnvPrefix+"_") {
			continue
		}
		if _, ok := os.LookupEnv(line.Key); ok {
			continue
		}
		if err := os.Setenv(line.Key, line.Val); err != nil {
			return errors.Wrapf(err, "setting %s", line.Key)
		}
	}
	return nil
}

func dequote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func interpolate(input string, vars map[string]string) string {
	var out strings.Builder
	for {
		start := strings.Index(input, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(input[start:], '}')
		if end < 0 {
			break
		}
		end += start
		name, def, _ := strings.Cut(input[start+2:end], ":-")
		out.WriteString(input[:start])
		switch val, ok := vars[name]; {
		case ok && val != "":
			out.WriteString(val)
		case def != "":
			out.WriteString(def)
		default:
			// unresolved references are kept as written
			out.WriteString(input[start : end+1])
		}
		input = input[end+1:]
	}
	out.WriteString(input)
	return out.String()
}

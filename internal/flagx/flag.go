// Package flagx lets several configuration stages share os.Args without
// tripping over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the flags named in allowed (plus their values) and
// drops everything else, so a FlagSet that knows a handful of flags can
// parse a command line that carries many more.
//
// Both "-f value" and "-f=value" forms are recognised. A following argument
// that starts with "-" is never consumed as a value.
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, found := strings.Cut(arg, "="); found {
			if known[name] {
				out = append(out, arg)
			}
			continue
		}

		if !known[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// lookupString parses a single string flag known under several names and
// returns the last value given on the command line.
func lookupString(set string, names ...string) string {
	var value string

	fs := flag.NewFlagSet(set, flag.ContinueOnError)
	fs.SetOutput(discard{})
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}

	allowed := make([]string, 0, len(names)*2)
	for _, n := range names {
		allowed = append(allowed, "-"+n, "--"+n)
	}
	_ = fs.Parse(FilterArgs(os.Args[1:], allowed))

	return value
}

// JsonConfigFlags returns the JSON config path given via -c or -config.
func JsonConfigFlags() string {
	return lookupString("json", "c", "config")
}

// EnvFileFlag returns the dotenv file path given via -e or -env.
func EnvFileFlag() string {
	return lookupString("env", "e", "env")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

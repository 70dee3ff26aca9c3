// Package flagx lets several independent flag sets share one os.Args.
//
// The server reads its configuration in layers: a JSON file named by
// -c/-config, then its own short flags. Each layer parses only the
// arguments it knows and leaves the rest alone.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps the arguments that belong to allowedFlags and drops the
// rest. A flag may be written with one or two dashes, as the flag package
// accepts both; allowedFlags entries are matched the same way.
//
// Values are kept whether given inline (-c=conf.json) or as the next
// argument (-c conf.json). A following argument that starts with a dash is
// never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[bare(f)] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, inline := strings.Cut(arg, "=")
		if !allowed[bare(name)] {
			continue
		}
		out = append(out, arg)

		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// Names lists every flag defined on fs in "-name" form, ready to be passed
// to FilterArgs.
func Names(fs *flag.FlagSet) []string {
	var names []string
	fs.VisitAll(func(f *flag.Flag) {
		names = append(names, "-"+f.Name)
	})
	return names
}

// ParseKnown parses the subset of args that fs defines.
func ParseKnown(fs *flag.FlagSet, args []string) error {
	return fs.Parse(FilterArgs(args, Names(fs)))
}

// ConfigFile returns the path given by -c or -config in args, or "" when
// neither is present. The last occurrence wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	fs.SetOutput(io.Discard)
	_ = ParseKnown(fs, args)

	return path
}

func bare(name string) string {
	return "-" + strings.TrimLeft(name, "-")
}

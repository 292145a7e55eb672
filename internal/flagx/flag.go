// Package flagx lets several components parse their own flags out of the same
// os.Args without tripping over each other's definitions.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args made of the allowed flags and their
// values. See FilterArgsWithSwitches for the accepted forms.
func FilterArgs(args []string, allowedFlags []string) []string {
	return FilterArgsWithSwitches(args, allowedFlags, nil)
}

// FilterArgsWithSwitches is FilterArgs for a flag set that also contains
// boolean switches. A switch never consumes the following argument.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//  3. Switch on its own:                     -s
//
// "-name" and "--name" are treated as the same flag, the way package flag does.
func FilterArgsWithSwitches(args []string, allowedFlags []string, switches []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags)+len(switches))
	for _, f := range allowedFlags {
		allowed[normalize(f)] = struct{}{}
	}
	isSwitch := make(map[string]struct{}, len(switches))
	for _, f := range switches {
		allowed[normalize(f)] = struct{}{}
		isSwitch[normalize(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, ok := strings.Cut(arg, "="); ok {
			if _, ok := allowed[normalize(name)]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		name := normalize(arg)
		if _, ok := allowed[name]; !ok {
			continue
		}
		filtered = append(filtered, arg)

		if _, ok := isSwitch[name]; ok {
			continue
		}
		// the value follows unless the next token looks like another flag
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

func normalize(name string) string {
	return "-" + strings.TrimLeft(name, "-")
}

// ConfigFileFlag extracts the JSON config path given via -c or -config.
// An empty string means no config file was requested.
func ConfigFileFlag() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

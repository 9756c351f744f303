// internal/cliutil/cliutil.go
package cliutil

import (
	"flag"
	"strings"
)

// takesValue reports whether the named flag consumes the following argument.
// Unknown names are treated as valued so fs.Parse reports them.
func takesValue(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return true
	}
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return !ok || !bf.IsBoolFlag()
}

// SplitFlagsAndPositionals lets flags appear after positionals. Everything
// after "--" is positional, as is a lone "-". Call fs.Parse(flagArgs) next.
func SplitFlagsAndPositionals(fs *flag.FlagSet, argv []string) (flagArgs, posArgs []string) {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--":
			return flagArgs, append(posArgs, argv[i+1:]...)
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			posArgs = append(posArgs, arg)
			continue
		}
		flagArgs = append(flagArgs, arg)
		name, _, inline := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !inline && takesValue(fs, name) && i+1 < len(argv) {
			i++
			flagArgs = append(flagArgs, argv[i])
		}
	}
	return flagArgs, posArgs
}

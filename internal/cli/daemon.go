// Package cli parses the flag surfaces for the two binaries: the daemon
// (speakanywhered) and the client (speakctl).
package cli

import (
	"errors"
	"fmt"
)

// DaemonFlags is the parsed command line for speakanywhered.
type DaemonFlags struct {
	Foreground bool
	Verbose    bool
	ConfigPath string
	ShowHelp   bool
	ShowVer    bool
}

// ParseDaemon parses speakanywhered's flags: --foreground/-f keeps the
// process attached to its controlling terminal instead of daemonizing,
// --verbose/-v raises the log level, --config/-c overrides the config
// path.
func ParseDaemon(args []string) (DaemonFlags, error) {
	var f DaemonFlags

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-f", "--foreground":
			f.Foreground = true
		case "-v", "--verbose":
			f.Verbose = true
		case "-h", "--help":
			f.ShowHelp = true
		case "--version":
			f.ShowVer = true
		case "-c", "--config":
			i++
			if i >= len(args) {
				return DaemonFlags{}, errors.New("--config requires a path")
			}
			f.ConfigPath = args[i]
		default:
			return DaemonFlags{}, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	return f, nil
}

// DaemonHelpText renders speakanywhered's usage text.
func DaemonHelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags]

Runs the speak-anywhere background daemon: captures microphone audio on
command, sends it to a transcription backend, and delivers the resulting
text into the focused application.

Flags:
  -f, --foreground   Stay attached to the terminal instead of daemonizing
  -v, --verbose      Enable debug-level logging
  -c, --config PATH  Config file path (default: $XDG_CONFIG_HOME/speak-anywhere/config.json)
  -h, --help         Show this help
  --version          Print version information
`, binaryName)
}

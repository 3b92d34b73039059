package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ClientCommand is one of the five commands the client can send.
type ClientCommand string

const (
	CommandStart   ClientCommand = "start"
	CommandStop    ClientCommand = "stop"
	CommandToggle  ClientCommand = "toggle"
	CommandStatus  ClientCommand = "status"
	CommandHistory ClientCommand = "history"
)

var validClientCommands = map[ClientCommand]struct{}{
	CommandStart:   {},
	CommandStop:    {},
	CommandToggle:  {},
	CommandStatus:  {},
	CommandHistory: {},
}

// ClientFlags is the parsed command line for speakctl.
type ClientFlags struct {
	Command  ClientCommand
	Output   string
	Limit    int
	ShowHelp bool
	ShowVer  bool
}

// ParseClient parses speakctl's flags: a positional command plus
// --output (start/toggle) and --limit (history).
func ParseClient(args []string) (ClientFlags, error) {
	flags := ClientFlags{Limit: 10}

	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			flags.ShowHelp = true
		case arg == "--version":
			flags.ShowVer = true
		case arg == "--output":
			i++
			if i >= len(args) {
				return ClientFlags{}, errors.New("--output requires a value")
			}
			flags.Output = args[i]
		case arg == "--limit":
			i++
			if i >= len(args) {
				return ClientFlags{}, errors.New("--limit requires a value")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return ClientFlags{}, fmt.Errorf("--limit: %w", err)
			}
			flags.Limit = n
		case strings.HasPrefix(arg, "-"):
			return ClientFlags{}, fmt.Errorf("unknown flag: %s", arg)
		default:
			positional = append(positional, arg)
		}
	}

	if flags.ShowHelp || flags.ShowVer {
		return flags, nil
	}

	if len(positional) != 1 {
		return ClientFlags{}, errors.New("expected exactly one command")
	}

	cmd := ClientCommand(positional[0])
	if _, ok := validClientCommands[cmd]; !ok {
		return ClientFlags{}, fmt.Errorf("unknown command: %s", positional[0])
	}
	flags.Command = cmd

	return flags, nil
}

// ClientHelpText renders speakctl's usage text.
func ClientHelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] <command>

Commands:
  start     Begin recording from the focused window's context
  stop      Stop recording and wait for the transcription
  toggle    start, or stop+transcribe if already recording
  status    Print the daemon's current state
  history   Print recent transcriptions

Flags:
  --output METHOD   Override the output method for start/toggle (clipboard, type)
  --limit N         Number of rows for history (default: 10)
  -h, --help        Show this help
  --version         Print version information
`, binaryName)
}

// Package output delivers transcribed text into the user's active
// application, either as a clipboard copy or as a clipboard-then-paste
// keystroke sequence.
package output

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Method identifies which delivery mode a command asked for.
type Method string

const (
	MethodClipboard Method = "clipboard"
	MethodType      Method = "type"
)

// pasteSettleDelay approximates the original's usleep(10000): a short
// pause for the compositor to register the new clipboard owner before a
// paste keystroke is synthesized.
const pasteSettleDelay = 10 * time.Millisecond

var terminalApps = []string{"kitty", "alacritty", "foot", "wezterm"}

// IsTerminal reports whether appName names one of the known terminal
// emulators, by case-insensitive substring match.
func IsTerminal(appName string) bool {
	lower := strings.ToLower(appName)
	for _, term := range terminalApps {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Deliverer is the single interface point for output delivery; Clipboard
// and Type are its two implementations.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// Clipboard pipes text to an external clipboard tool's stdin.
type Clipboard struct {
	// Argv is the clipboard command, e.g. []string{"wl-copy"}.
	Argv []string
}

// NewClipboard builds a Clipboard delivering through argv (defaults to
// wl-copy when empty).
func NewClipboard(argv []string) *Clipboard {
	if len(argv) == 0 {
		argv = []string{"wl-copy"}
	}
	return &Clipboard{Argv: argv}
}

// Deliver writes text to the clipboard tool's stdin and waits for it to
// exit. Success requires exit code 0.
func (c *Clipboard) Deliver(ctx context.Context, text string) error {
	return runWithStdin(ctx, c.Argv, text)
}

// Type always routes through the clipboard first — direct synthetic
// typing is unreliable across toolkits — then dispatches a paste
// keystroke, using the terminal shortcut when IsTerminal is true.
type Type struct {
	Clipboard     *Clipboard
	PasteArgv     []string
	TermPasteArgv []string
	IsTerminal    bool
}

// NewType builds a Type deliverer. pasteArgv/termPasteArgv default to
// wtype invocations for Ctrl+V and Ctrl+Shift+V respectively.
func NewType(clip *Clipboard, isTerminal bool) *Type {
	return &Type{
		Clipboard:     clip,
		PasteArgv:     []string{"wtype", "-M", "ctrl", "-k", "v"},
		TermPasteArgv: []string{"wtype", "-M", "ctrl", "-M", "shift", "-k", "v"},
		IsTerminal:    isTerminal,
	}
}

// Deliver copies text to the clipboard, waits for pasteSettleDelay, then
// synthesizes the appropriate paste keystroke.
func (t *Type) Deliver(ctx context.Context, text string) error {
	if err := t.Clipboard.Deliver(ctx, text); err != nil {
		return err
	}

	select {
	case <-time.After(pasteSettleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	argv := t.PasteArgv
	if t.IsTerminal {
		argv = t.TermPasteArgv
	}
	if err := runWithStdin(ctx, argv, ""); err != nil {
		return fmt.Errorf("paste keystroke: %w", err)
	}
	return nil
}

// DirectType synthesizes keystrokes without going through the clipboard.
// It is available as an opt-in but is never selected by default (see
// Factory), matching the deliberate default of always routing through
// clipboard+paste.
type DirectType struct {
	Argv []string
}

// Deliver runs wtype directly against text.
func (d *DirectType) Deliver(ctx context.Context, text string) error {
	argv := d.Argv
	if len(argv) == 0 {
		argv = []string{"wtype", "-d", "0", text}
	} else {
		argv = append(append([]string{}, argv...), text)
	}
	return runWithStdin(ctx, argv, "")
}

// Factory builds the Deliverer for one command's requested method and
// terminal hint. directTypeOptIn gates DirectType; it defaults to false
// everywhere in this daemon.
type Factory struct {
	ClipboardArgv   []string
	DirectTypeOptIn bool
}

// NewFactory builds a Factory using clipboardArgv (or wl-copy if empty)
// for every clipboard operation.
func NewFactory(clipboardArgv []string) *Factory {
	return &Factory{ClipboardArgv: clipboardArgv}
}

// Build returns the Deliverer for method, given whether the focused app
// is a known terminal emulator.
func (f *Factory) Build(method Method, isTerminal bool) Deliverer {
	clip := NewClipboard(f.ClipboardArgv)
	switch method {
	case MethodType:
		if f.DirectTypeOptIn {
			return &DirectType{}
		}
		return NewType(clip, isTerminal)
	default:
		return clip
	}
}

// runWithStdin execs argv[0], optionally writing input to its stdin, and
// waits for it to exit. exec.Cmd already retries EINTR internally on the
// pipe write and on Wait's underlying wait4, which is the Go-idiomatic
// equivalent of the fork/exec/write/waitpid retry loop this mirrors.
func runWithStdin(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("output: empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("output: open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("output: fork/exec %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("output: write to %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("output: %s exited with error: %w", argv[0], err)
	}
	return nil
}

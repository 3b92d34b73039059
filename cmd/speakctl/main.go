// Command speakctl is the client for the speak-anywhere daemon: it sends
// one command over the daemon's Unix socket and prints the response.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/speakanywhere/speakanywhere/internal/cli"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := cli.ParseClient(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		fmt.Fprint(os.Stderr, cli.ClientHelpText("speakctl"))
		return 2
	}
	if flags.ShowHelp {
		fmt.Fprint(os.Stdout, cli.ClientHelpText("speakctl"))
		return 0
	}
	if flags.ShowVer {
		fmt.Fprintln(os.Stdout, version.String())
		return 0
	}

	req := ipc.Request{Cmd: string(flags.Command), Output: flags.Output, Limit: flags.Limit}

	ctx := context.Background()
	var resp ipc.Response
	if flags.Command == cli.CommandStop || flags.Command == cli.CommandToggle {
		resp, err = ipc.SendDeferred(ctx, ipc.SocketPath(), req, ipc.DefaultReceiveTimeout)
	} else {
		resp, err = ipc.Send(ctx, ipc.SocketPath(), req, ipc.DefaultReceiveTimeout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return printResponse(flags.Command, resp)
}

func printResponse(cmd cli.ClientCommand, resp ipc.Response) int {
	if resp.Status == "error" {
		msg := resp.Message
		if msg == "" {
			msg = resp.Error
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		return 1
	}

	switch cmd {
	case cli.CommandStatus:
		fmt.Fprintln(os.Stdout, resp.State)
	case cli.CommandHistory:
		for _, e := range resp.Entries {
			fmt.Fprintf(os.Stdout, "%d\t%s\t%.1fs\t%s\n", e.ID, e.Timestamp, e.AudioDuration, e.Text)
		}
	case cli.CommandStop, cli.CommandToggle:
		if resp.Text != "" {
			fmt.Fprintln(os.Stdout, resp.Text)
		} else if resp.Message != "" {
			fmt.Fprintln(os.Stdout, resp.Message)
		}
	default:
		if resp.Message != "" {
			fmt.Fprintln(os.Stdout, resp.Message)
		}
	}

	return 0
}

// Command messenger-log prints a recorded bridge event log.
//
// The messenger writes events as a CBOR stream (-event-log flag); this
// tool decodes such a file back into readable lines.
//
// Usage:
//
//	messenger-log [flags] <logfile>
//
// Flags:
//
//	-session string  Only show events for this session ID
//	-errors          Only show error events
//	-version         Print the version and exit
package main

import (
	"flag"
	"fmt"
	"os"

	blog "github.com/transplant-bridge/messenger-go/pkg/log"
	"github.com/transplant-bridge/messenger-go/pkg/version"
)

var (
	sessionID   = flag.String("session", "", "Only show events for this session ID")
	errorsOnly  = flag.Bool("errors", false, "Only show error events")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent("messenger-log"))
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: messenger-log [flags] <logfile>")
		os.Exit(2)
	}

	filter := blog.Filter{SessionID: *sessionID}
	if *errorsOnly {
		cat := blog.CategoryError
		filter.Category = &cat
	}

	events, err := blog.ReadAll(flag.Arg(0), filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "messenger-log: %v\n", err)
		os.Exit(1)
	}

	for _, ev := range events {
		printEvent(ev)
	}
}

func printEvent(ev blog.Event) {
	ts := ev.Timestamp.Format("15:04:05.000000")

	switch {
	case ev.Frame != nil:
		data := string(ev.Frame.Data)
		suffix := ""
		if ev.Frame.Truncated {
			suffix = " (truncated)"
		}
		fmt.Printf("%s %s %-3s %d bytes: %q%s\n",
			ts, short(ev.SessionID), ev.Direction, ev.Frame.Size, data, suffix)

	case ev.StateChange != nil:
		reason := ""
		if ev.StateChange.Reason != "" {
			reason = " (" + ev.StateChange.Reason + ")"
		}
		fmt.Printf("%s %s     %s -> %s%s\n",
			ts, short(ev.SessionID), ev.StateChange.OldState, ev.StateChange.NewState, reason)

	case ev.Error != nil:
		fmt.Printf("%s %s     error [%s] %s\n",
			ts, short(ev.SessionID), ev.Error.Kind, ev.Error.Message)

	default:
		fmt.Printf("%s %s     %s event\n", ts, short(ev.SessionID), ev.Category)
	}
}

// short abbreviates a UUID session ID for display.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

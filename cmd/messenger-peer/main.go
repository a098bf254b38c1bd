// Command messenger-peer plays the request side of the messenger
// bridge: it listens on an endpoint, sends each input line as a request,
// and prints the bridge's reply. Use it to exercise a messenger session
// end to end:
//
//	# terminal 1
//	messenger-peer -endpoint tcp://127.0.0.1:5555
//
//	# terminal 2
//	messenger -endpoint tcp://127.0.0.1:5555
//	messenger> receive
//	messenger> send got it
//
// Flags:
//
//	-endpoint string   Endpoint to listen on (required)
//	-timeout duration  Reply wait bound (default 30s)
//	-version           Print the version and exit
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	mangos "go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/req"

	_ "go.nanomsg.org/mangos/v3/transport/inproc"
	_ "go.nanomsg.org/mangos/v3/transport/ipc"
	_ "go.nanomsg.org/mangos/v3/transport/tcp"

	"github.com/transplant-bridge/messenger-go/pkg/version"
)

var (
	endpoint    = flag.String("endpoint", "", "Endpoint to listen on (required)")
	timeout     = flag.Duration("timeout", 30*time.Second, "Reply wait bound")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent("messenger-peer"))
		return
	}
	if *endpoint == "" {
		fmt.Fprintln(os.Stderr, "messenger-peer: -endpoint is required")
		flag.Usage()
		os.Exit(2)
	}

	sock, err := req.NewSocket()
	if err != nil {
		fmt.Fprintf(os.Stderr, "messenger-peer: %v\n", err)
		os.Exit(1)
	}
	defer sock.Close()

	if err := sock.SetOption(mangos.OptionRecvDeadline, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "messenger-peer: %v\n", err)
		os.Exit(1)
	}
	if err := sock.Listen(*endpoint); err != nil {
		fmt.Fprintf(os.Stderr, "messenger-peer: listen %s: %v\n", *endpoint, err)
		os.Exit(1)
	}

	fmt.Printf("listening on %s; each input line is sent as a request\n", *endpoint)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("peer> ")
		if !scanner.Scan() {
			return
		}
		// Copy the line: the engine owns the buffer once sent and the
		// scanner reuses its own.
		request := append([]byte(nil), scanner.Bytes()...)

		if err := sock.Send(request); err != nil {
			fmt.Fprintf(os.Stderr, "messenger-peer: send: %v\n", err)
			continue
		}
		reply, err := sock.Recv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "messenger-peer: recv: %v\n", err)
			continue
		}
		fmt.Printf("%d bytes: %q\n", len(reply), reply)
	}
}

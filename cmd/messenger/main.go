// Command messenger is an interactive driver for the request/reply
// messenger bridge.
//
// It opens a reply-pattern socket toward a request peer and then lets
// you walk the receive/send alternation by hand, which is the same
// command surface the bridge exposes to embedding hosts.
//
// Usage:
//
//	messenger [flags]
//
// Flags:
//
//	-endpoint string   Endpoint to open on startup (e.g. tcp://127.0.0.1:5555)
//	-config string     Path to a YAML configuration file
//	-event-log string  File path for bridge event logging (CBOR stream)
//	-recv-timeout duration  Bound on blocking receive (0 = block forever)
//	-send-timeout duration  Bound on blocking send (0 = block forever)
//	-verbose           Mirror bridge events to the console at debug level
//	-version           Print the version and exit
//
// Examples:
//
//	# Connect immediately, recording every frame and failure
//	messenger -endpoint tcp://127.0.0.1:5555 -event-log session.blog
//
//	# Start idle and drive the lifecycle by hand
//	messenger
//	messenger> open inproc://demo
//	messenger> receive
//	messenger> send hello back
//	messenger> close
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"gopkg.in/yaml.v3"

	"github.com/transplant-bridge/messenger-go/pkg/bridge"
	"github.com/transplant-bridge/messenger-go/pkg/engine/nanomsg"
	"github.com/transplant-bridge/messenger-go/pkg/fault"
	blog "github.com/transplant-bridge/messenger-go/pkg/log"
	"github.com/transplant-bridge/messenger-go/pkg/version"
)

// Config holds the messenger configuration, merged from the optional
// YAML file and command-line flags (flags win).
type Config struct {
	Endpoint    string `yaml:"endpoint"`
	EventLog    string `yaml:"event_log"`
	RecvTimeout string `yaml:"recv_timeout"`
	SendTimeout string `yaml:"send_timeout"`
	Verbose     bool   `yaml:"verbose"`

	// Lifecycle policy knobs, see bridge.Config.
	ReplaceOnOpen bool `yaml:"replace_on_open"`
	StrictClose   bool `yaml:"strict_close"`
}

var (
	endpoint    = flag.String("endpoint", "", "Endpoint to open on startup")
	configFile  = flag.String("config", "", "Path to a YAML configuration file")
	eventLog    = flag.String("event-log", "", "File path for bridge event logging (CBOR stream)")
	recvTimeout = flag.Duration("recv-timeout", 0, "Bound on blocking receive (0 = block forever)")
	sendTimeout = flag.Duration("send-timeout", 0, "Bound on blocking send (0 = block forever)")
	verbose     = flag.Bool("verbose", false, "Mirror bridge events to the console at debug level")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent("messenger"))
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "messenger: %v\n", err)
		os.Exit(1)
	}

	logger, closeLogger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "messenger: %v\n", err)
		os.Exit(1)
	}
	defer closeLogger()

	sess := bridge.NewSession(nanomsg.New(), bridge.Config{
		Logger:        logger,
		RecvTimeout:   mustDuration(cfg.RecvTimeout, *recvTimeout),
		SendTimeout:   mustDuration(cfg.SendTimeout, *sendTimeout),
		ReplaceOnOpen: cfg.ReplaceOnOpen,
		StrictClose:   cfg.StrictClose,
	})
	disp := bridge.NewDispatcher(sess)

	if cfg.Endpoint != "" {
		if _, err := disp.Dispatch([]byte(bridge.CommandOpen), []byte(cfg.Endpoint)); err != nil {
			fmt.Fprintf(os.Stderr, "messenger: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("open %s\n", cfg.Endpoint)
	}

	runLoop(disp)

	// Best-effort teardown on exit; a second close is a no-op.
	if sess.State() == bridge.StateOpen {
		if err := sess.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "messenger: close: %v\n", err)
		}
	}
}

// loadConfig merges the YAML file (if any) with the flags. Flags take
// precedence over file values.
func loadConfig() (Config, error) {
	var cfg Config

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *eventLog != "" {
		cfg.EventLog = *eventLog
	}
	if *verbose {
		cfg.Verbose = true
	}

	return cfg, nil
}

// mustDuration resolves the effective timeout: the flag wins when set,
// otherwise the YAML string is parsed, otherwise zero.
func mustDuration(fromFile string, fromFlag time.Duration) time.Duration {
	if fromFlag > 0 {
		return fromFlag
	}
	if fromFile == "" {
		return 0
	}
	d, err := time.ParseDuration(fromFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "messenger: invalid duration %q in config, ignoring\n", fromFile)
		return 0
	}
	return d
}

// buildLogger assembles the event logger from the configuration.
func buildLogger(cfg Config) (blog.Logger, func(), error) {
	var loggers []blog.Logger
	closeFn := func() {}

	if cfg.EventLog != "" {
		fl, err := blog.NewFileLogger(cfg.EventLog)
		if err != nil {
			return nil, nil, fmt.Errorf("open event log: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() { fl.Close() }
	}
	if cfg.Verbose {
		sl := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		loggers = append(loggers, blog.NewSlogAdapter(sl))
	}

	switch len(loggers) {
	case 0:
		return blog.NoopLogger{}, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return blog.NewMultiLogger(loggers...), closeFn, nil
	}
}

// runLoop reads commands until EOF or an explicit exit.
func runLoop(disp *bridge.Dispatcher) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "messenger> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "messenger: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	printHelp(rl.Stdout())

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(input, " ")
		switch strings.ToLower(cmd) {
		case "help", "?":
			printHelp(rl.Stdout())
			continue
		case "state":
			fmt.Fprintln(rl.Stdout(), disp.Session().State())
			continue
		case "exit", "quit":
			return
		}

		args := [][]byte{[]byte(strings.ToLower(cmd))}
		if rest != "" {
			// The rest of the line is a single argument, spaces included.
			args = append(args, []byte(rest))
		}

		result, err := disp.Dispatch(args...)
		if err != nil {
			printFailure(rl.Stdout(), err)
			continue
		}
		if result != nil {
			fmt.Fprintf(rl.Stdout(), "%d bytes: %q\n", len(result), result)
		} else {
			fmt.Fprintln(rl.Stdout(), "ok")
		}
	}
}

// printFailure reports a failure with its kind tag and retry hint.
func printFailure(w io.Writer, err error) {
	if kind, ok := fault.KindOf(err); ok {
		if fault.Retryable(err) {
			fmt.Fprintf(w, "error [%s, retryable]: %v\n", kind, err)
		} else {
			fmt.Fprintf(w, "error [%s]: %v\n", kind, err)
		}
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  open <endpoint>   connect the reply socket to an endpoint")
	fmt.Fprintln(w, "  receive           block until a request arrives")
	fmt.Fprintln(w, "  send <payload>    reply to the last received request")
	fmt.Fprintln(w, "  close             release the socket and context")
	fmt.Fprintln(w, "  state             show the session state")
	fmt.Fprintln(w, "  help              show this help")
	fmt.Fprintln(w, "  exit              quit (closes the session first)")
}

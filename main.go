// Command wschat starts the raw-TCP WebSocket chat service.
//
// It supports two modes:
//  1. "server" – binds the chat server and fans every peer's messages out
//     to all other connected peers
//  2. "client <display-name>" – connects to a running server and chats
//     interactively on the terminal; "/exit" leaves the room
//
// Flags control host/port and debug logging; CHAT_HOST and CHAT_PORT work
// as environment fallbacks, loaded from a .env file when one exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/mrinalxdev/websocket/chat"
	"github.com/mrinalxdev/websocket/client"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "wschat"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = 8000

	// shutdownGrace is how long the server waits for handlers to drain
	// after the close frames go out.
	shutdownGrace = 5 * time.Second
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newCommand builds the CLI surface: two thin wrappers over the chat server
// and the chat client.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "minimal real-time chat over raw-TCP WebSocket",
		Version: Version,
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "run the listening chat server",
				Flags:  connFlags(),
				Action: runServer,
			},
			{
				Name:      "client",
				Usage:     "connect to a chat server",
				ArgsUsage: "<display-name>",
				Flags:     connFlags(),
				Action:    runClient,
			},
		},
	}
}

// connFlags returns a fresh flag set so the server and client commands do
// not share flag state.
func connFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   defaultHost,
			Usage:   "chat server host",
			Sources: cli.EnvVars("CHAT_HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   defaultPort,
			Usage:   "chat server port",
			Sources: cli.EnvVars("CHAT_PORT"),
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}
}

func setupLogging(cmd *cli.Command) {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func address(cmd *cli.Command) string {
	port := strconv.FormatInt(int64(cmd.Int("port")), 10)
	return net.JoinHostPort(cmd.String("host"), port)
}

// runServer binds the listener, serves until interrupted, then drains
// handlers gracefully. A bind failure is fatal.
func runServer(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	log.Printf("Starting %s v%s (server)", AppName, Version)

	srv := chat.NewServer(address(cmd))
	if err := srv.Listen(); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown incomplete: %v", err)
	}
	log.Println("Server stopped")
	return nil
}

// runClient connects to the server under the given display name and chats
// on the terminal until the exit command, a server close, or an interrupt.
func runClient(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	name := strings.TrimSpace(cmd.Args().First())
	if name == "" {
		return fmt.Errorf("usage: %s client <display-name>", AppName)
	}

	session, err := client.Dial(address(cmd), name, os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	fmt.Println("Disconnected")
	return err
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/plotwise/plotwise/pkg/server"
	"github.com/plotwise/plotwise/pkg/stream"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "chat <listing-id>",
		Short: "Chat interactively about a listing",
		Long: "Chat interactively about a listing. With --server the conversation is held\n" +
			"by a running plotwise server over its websocket endpoint.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			interactive := term.IsTerminal(int(os.Stdin.Fd()))

			if remote != "" {
				return chatRemote(cmd.Context(), remote, args[0], in, out, interactive)
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			l, err := a.listing(args[0])
			if err != nil {
				return err
			}
			conv := a.svc.StartChat(l)
			fmt.Fprintln(out, conv.Messages()[0].Text)

			for prompt(out, interactive) && in.Scan() {
				msg := strings.TrimSpace(in.Text())
				if msg == "" {
					continue
				}
				printUpdates(out, conv.Send(cmd.Context(), msg))
			}
			return in.Err()
		},
	}

	cmd.Flags().StringVar(&remote, "server", "", "plotwise server URL, e.g. http://localhost:8080")
	return cmd
}

func prompt(w io.Writer, interactive bool) bool {
	if interactive {
		fmt.Fprint(w, "> ")
	}
	return true
}

// printUpdates writes each delta as it arrives. A failed update carries
// only the failure message as its delta, so output never repeats text.
func printUpdates(w io.Writer, updates <-chan stream.Update) {
	for u := range updates {
		fmt.Fprint(w, u.Delta)
	}
	fmt.Fprintln(w)
}

func chatRemote(ctx context.Context, base, listingID string, in *bufio.Scanner, out io.Writer, interactive bool) error {
	wsURL, err := chatSocketURL(base, listingID)
	if err != nil {
		return err
	}
	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wsURL, err)
	}
	defer conn.CloseNow()

	first, err := readFrame(ctx, conn)
	if err != nil {
		return err
	}
	for _, m := range first.Messages {
		fmt.Fprintln(out, m.Text)
	}

	for prompt(out, interactive) && in.Scan() {
		msg := strings.TrimSpace(in.Text())
		if msg == "" {
			continue
		}
		data, err := json.Marshal(server.ClientMessage{Message: msg})
		if err != nil {
			return err
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			return fmt.Errorf("send message: %w", err)
		}

	reply:
		for {
			f, err := readFrame(ctx, conn)
			if err != nil {
				return err
			}
			switch f.Type {
			case server.FrameUpdate:
				fmt.Fprint(out, f.Update.Delta)
			case server.FrameError:
				fmt.Fprintf(out, "error: %s", f.Error)
				break reply
			case server.FrameDone:
				break reply
			}
		}
		fmt.Fprintln(out)
	}
	if err := in.Err(); err != nil {
		return err
	}
	return conn.Close(websocket.StatusNormalClosure, "bye")
}

func readFrame(ctx context.Context, conn *websocket.Conn) (server.Frame, error) {
	var f server.Frame
	_, data, err := conn.Read(ctx)
	if err != nil {
		return f, fmt.Errorf("read frame: %w", err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// chatSocketURL maps an http(s) server URL onto the listing's ws(s) chat endpoint.
func chatSocketURL(base, listingID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/listings/" + listingID + "/chat/ws"
	return u.String(), nil
}

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/himanshuarya/portfolio-rag/pkg/client"
)

// connectFailure is printed for any transport or server failure.
const connectFailure = "Failed to connect to AI server."

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a running server a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().String("server", "", "server base URL (default http://localhost:<port>)")
	askCmd.Flags().Bool("stream", false, "print the reply as it is generated")
}

func runAsk(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(false)
	if err != nil {
		return err
	}

	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = localURL(p)
	}
	stream, _ := cmd.Flags().GetBool("stream")

	c := client.New(server, client.WithTimeout(p.Timeout))
	question := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	if stream {
		_, err = c.ChatStream(cmd.Context(), question, nil, func(token string) {
			fmt.Fprint(out, token)
		})
		fmt.Fprintln(out)
	} else {
		var reply string
		reply, err = c.Chat(cmd.Context(), question, nil)
		if err == nil {
			fmt.Fprintln(out, reply)
		}
	}

	if err != nil {
		slog.Debug("Ask failed", "server", server, "error", err)
		fmt.Fprintln(out, connectFailure)
		return err
	}
	return nil
}

// chatlog - Chat Transcript Parser
//
// chatlog turns exported chat transcripts into timestamped, attributed
// records that can be printed, exported as JSON or CSV, or posted to a webhook.
package main

import (
	"os"

	"github.com/ccollicutt/chatlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// Command dial places an outbound call through the configured telephony
// provider and prints the provider call id.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/voxline-ai/voxline/pkg/config"
	"github.com/voxline-ai/voxline/pkg/telephony"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	to := flag.String("to", "", "destination number, E.164")
	from := flag.String("from", "", "caller id number, E.164")
	voiceURL := flag.String("voice_url", "", "override answer webhook URL")
	flag.Parse()

	if *to == "" || *from == "" {
		fmt.Println("usage: dial -to=+123 -from=+456 [-config=...] [-voice_url=...]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(1)
	}

	answerURL := *voiceURL
	if answerURL == "" {
		if cfg.Server.PublicURL == "" {
			fmt.Println("server.public_url is empty")
			os.Exit(1)
		}
		answerURL = "https://" + normalizePublicURL(cfg.Server.PublicURL) + cfg.Server.VoicePath
	}

	controller := telephony.NewController(cfg.Telephony)
	sid, err := controller.InitiateCall(context.Background(), *to, *from, telephony.CallbackURLs{
		AnswerURL: answerURL,
	})
	if err != nil {
		fmt.Println("call error:", err)
		os.Exit(1)
	}
	fmt.Println("call_sid:", sid)
}

func normalizePublicURL(raw string) string {
	raw = strings.TrimPrefix(raw, "https://")
	raw = strings.TrimPrefix(raw, "http://")
	return strings.TrimSuffix(raw, "/")
}

// Command shopctl drives the shop socket API from a terminal. The session id
// is kept in a file so later invocations reuse it.
//
//	shopctl login -u admin -p secret
//	shopctl call getInventory
//	shopctl call addInventory '{"ItemName":"Ring","Quantity":2,"WeightPerPiece":3.5}'
//	shopctl resume
//	shopctl logout
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/KrishnaRLolage/GoldShopManager/internal/config"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/wsclient"
)

var errUsage = errors.New("usage: shopctl login|resume|logout|call <action> [payload] [flags]")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.LoadClient()

	var url, sessionFile, username, password string
	timeout := cfg.RequestTimeout

	flagSet := pflag.NewFlagSet("shopctl", pflag.ContinueOnError)
	flagSet.StringVar(&url, "url", cfg.URL, "socket URL")
	flagSet.DurationVar(&timeout, "timeout", cfg.RequestTimeout, "per-request timeout")
	flagSet.StringVar(&sessionFile, "session-file", cfg.SessionFile, "where the session id is kept")
	flagSet.StringVarP(&username, "username", "u", "", "username for login")
	flagSet.StringVarP(&password, "password", "p", os.Getenv("SHOP_PASSWORD"), "password for login (default $SHOP_PASSWORD)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		return errUsage
	}
	command, rest := rest[0], rest[1:]

	ctx := context.Background()
	client, err := wsclient.Dial(ctx, url, wsclient.Options{
		Timeout:      timeout,
		SessionStore: wsclient.NewFileSessionStore(sessionFile),
		OnSessionExpired: func() {
			log.Println("Session expired, log in again")
		},
	})
	if err != nil {
		return err
	}
	defer client.Close()

	var result any
	switch command {
	case "login":
		result, err = client.Login(ctx, username, password)
	case "resume":
		result, err = client.ResumeSession(ctx)
	case "logout":
		err = client.Logout(ctx)
		result = map[string]string{"message": "logged out"}
	case "call":
		result, err = call(ctx, client, rest)
	default:
		return errUsage
	}
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func call(ctx context.Context, client *wsclient.Client, args []string) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, errors.New("call needs an action")
	}

	var payload any
	if len(args) > 1 {
		if !json.Valid([]byte(args[1])) {
			return nil, errors.New("payload is not valid JSON")
		}
		payload = json.RawMessage(args[1])
	}

	return client.Call(ctx, args[0], payload)
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/config"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/app"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/controller"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/feed"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/ledger"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/metrics"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/session"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/utils"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/wallet"
)

func main() {
	utils.InitLogger()
	if err := config.LoadConfig(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings := config.SettingsObj

	if settings.PrivateKey == "" {
		fmt.Println("No signing provider configured. Set PRIVATE_KEY to continue.")
		os.Exit(1)
	}

	// One goroutine owns stdin; the interactive loop and the approval
	// prompt both consume from the same line channel.
	lines := make(chan string)
	go readLines(lines)
	approver := func(ctx context.Context, action string) bool {
		fmt.Printf("Approve: %s? [y/N] ", action)
		select {
		case <-ctx.Done():
			return false
		case answer, ok := <-lines:
			if !ok {
				return false
			}
			answer = strings.ToLower(strings.TrimSpace(answer))
			return answer == "y" || answer == "yes"
		}
	}

	keystore, err := wallet.NewKeystoreProvider(settings.RPCURL, settings.PrivateKey, settings.ChainID, approver)
	if err != nil {
		log.Fatalf("Failed to create signing provider: %v", err)
	}
	defer keystore.Close()

	contractBinding, err := ledger.NewContractBinding(settings.ContractAddress)
	if err != nil {
		log.Fatalf("Failed to bind contract: %v", err)
	}

	binding := session.NewBinding(keystore)
	client := ledger.NewClient(keystore.Client(), contractBinding, settings.GasLimit)
	store := feed.NewStore()
	ctrl := controller.New(binding, client, store)
	application := app.New(ctx, binding, client, store, ctrl, settings.ReloadConcurrency)
	defer application.Teardown()

	if settings.MetricsEnabled {
		go metrics.StartServer(settings.MetricsPort)
	}

	// Watch for chain switches so the session hard-resets the way the
	// browser client did on the chainChanged event.
	go keystore.WatchChain(ctx, 15*time.Second)

	if err := application.Connect(ctx); err != nil {
		switch {
		case errors.Is(err, wallet.ErrProviderUnavailable):
			fmt.Println("No signing provider available. Install or configure a wallet.")
			os.Exit(1)
		case errors.Is(err, wallet.ErrUserRejected):
			fmt.Println("Connection was declined.")
			os.Exit(1)
		default:
			log.Fatalf("Failed to connect: %v", err)
		}
	}

	printState(application.CurrentState())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println(`Type a post and press enter to submit. "/reload" re-pulls the feed, "/quit" exits.`)
	for {
		select {
		case <-sigChan:
			fmt.Println("Shutting down")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			handleLine(ctx, application, line)
		}
	}
}

func handleLine(ctx context.Context, application *app.App, line string) {
	switch strings.TrimSpace(line) {
	case "/quit":
		os.Exit(0)
	case "/reload":
		if err := application.Reload(ctx); err != nil {
			fmt.Println("Reload failed; the previous feed is still shown.")
			return
		}
		printState(application.CurrentState())
	case "":
		fmt.Println("Please enter a post before submitting.")
	default:
		submit(ctx, application, line)
	}
}

func submit(ctx context.Context, application *app.App, line string) {
	application.SetComposingText(line)
	err := application.Submit(ctx)
	switch {
	case err == nil:
		printState(application.CurrentState())
	case errors.Is(err, controller.ErrEmptyContent):
		fmt.Println("Please enter a post before submitting.")
	case errors.Is(err, wallet.ErrUserRejected):
		fmt.Println("Transaction was declined. Please try again.")
	case errors.Is(err, wallet.ErrNoActiveAccount):
		fmt.Println("No active account. Reconnect your wallet and try again.")
	case errors.Is(err, controller.ErrBusy):
		fmt.Println("A post is already being submitted.")
	default:
		fmt.Println("Failed to create post. Check the logs for details.")
	}
}

func readLines(out chan<- string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
	close(out)
}

func printState(state app.State) {
	fmt.Println("=== Decentralized Social Network ===")
	if state.Connected {
		fmt.Printf("Account: %s\n", state.Account.Hex())
	} else {
		fmt.Println("Account: (disconnected)")
	}
	if len(state.Feed) == 0 {
		fmt.Println("No posts yet!")
		return
	}
	for _, post := range state.Feed {
		when := time.Unix(post.Timestamp, 0).Format(time.RFC822)
		if post.Optimistic() {
			fmt.Printf("[pending] %s at %s\n    %s\n", post.Author.Hex(), when, post.Content)
			continue
		}
		fmt.Printf("[#%d] %s at %s\n    %s\n", post.Index, post.Author.Hex(), when, post.Content)
	}
}

// chat is the host binary: it spawns the configured worker processes,
// gathers their tool catalogs, and runs a console conversation in which the
// model can call tools through JSON directives.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/calcbridge/go-mcp-host/internal/config"
	mcperrors "github.com/calcbridge/go-mcp-host/internal/errors"
	"github.com/calcbridge/go-mcp-host/internal/logging"
	"github.com/calcbridge/go-mcp-host/internal/oracle"
	"github.com/calcbridge/go-mcp-host/pkg/client"
	"github.com/calcbridge/go-mcp-host/pkg/directive"
	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if _, err := config.APIKey(); err != nil {
		return err
	}

	loggerFactory := logging.NewLoggerFactory()
	loggerFactory.SetLevel(parseLevel(cfg.LogLevel))
	logger := loggerFactory.CreateLogger("chat")

	ctx := context.Background()

	// Spawn every configured worker; a failure tears down the ones already
	// running so nothing is left behind
	clients := make(map[string]*client.Client, len(cfg.Servers))
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()

	names := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c, err := client.Connect(ctx, cfg.Servers[name],
			client.WithClientInfo(map[string]string{"name": "chat"}),
			client.WithLoggerFactory(loggerFactory),
		)
		if err != nil {
			return fmt.Errorf("connect to %s: %w", name, err)
		}
		clients[name] = c
		logging.Info(logger, "connected", "server", name, "tools", c.Tools().Len())
	}

	var allTools []protocol.Tool
	for _, name := range names {
		allTools = append(allTools, clients[name].Tools().All()...)
	}

	fmt.Println("\nAvailable tools:")
	for _, tool := range allTools {
		fmt.Printf("- %s: %s\n", tool.Name, tool.Description)
	}

	llm := oracle.New(cfg.Model, allTools)

	var conversation []anthropic.MessageParam
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if lower := strings.ToLower(input); lower == "exit" || lower == "quit" {
			break
		}

		conversation = append(conversation, anthropic.NewUserMessage(anthropic.NewTextBlock(input)))

		response, err := llm.Generate(ctx, conversation)
		if err != nil {
			logging.Error(logger, "model request failed", "error", err)
			fmt.Println("Model request failed:", err)
			continue
		}
		conversation = append(conversation, anthropic.NewAssistantMessage(anthropic.NewTextBlock(response)))

		req, err := directive.Parse(response)
		if err != nil {
			// Not a tool directive: show it as a normal assistant turn
			fmt.Println("\nAssistant:", response)
			continue
		}

		output, err := dispatch(ctx, clients, names, *req)
		if err != nil {
			return err
		}

		fmt.Println("\nTool output:")
		fmt.Println(output)

		// Feed the tool output back so the model can use it
		conversation = append(conversation, anthropic.NewUserMessage(
			anthropic.NewTextBlock("Tool output:\n"+output)))
	}

	return scanner.Err()
}

// dispatch routes a directive to the worker whose catalog has the tool.
// Recoverable failures become the output text; fatal channel failures
// propagate so the program shuts down.
func dispatch(ctx context.Context, clients map[string]*client.Client, names []string, req protocol.CallRequest) (string, error) {
	for _, name := range names {
		c := clients[name]
		if !c.Tools().Has(req.ToolName) {
			continue
		}

		result, err := c.Execute(ctx, req)
		if err != nil {
			if mcperrors.IsFatal(err) {
				return "", fmt.Errorf("worker %s failed: %w", name, err)
			}
			return fmt.Sprintf("tool %s failed: %v", req.ToolName, err), nil
		}
		return result.Text(), nil
	}

	var available []string
	for _, name := range names {
		available = append(available, clients[name].Tools().Names()...)
	}
	sort.Strings(available)
	return fmt.Sprintf("unknown tool %q (available: %s)", req.ToolName, strings.Join(available, ", ")), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logging.LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

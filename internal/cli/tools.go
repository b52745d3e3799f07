package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"taskpilot/config"
	"taskpilot/internal/confirm"
	"taskpilot/internal/fault"
	"taskpilot/internal/tasky"
	"taskpilot/internal/toolcall"
	"taskpilot/internal/transcript"
	"taskpilot/pkg/argparser"
)

// ListTools prints the tool catalog advertised by the configured endpoint.
func ListTools() error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tools, err := client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("%s", fault.UserMessage(err))
	}
	if len(tools) == 0 {
		fmt.Println("The endpoint advertises no tools")
		return nil
	}
	for _, tool := range tools {
		if tool.Description != "" {
			fmt.Printf("%s\t%s\n", tool.Name, tool.Description)
		} else {
			fmt.Println(tool.Name)
		}
	}
	return nil
}

// CallTool runs one tool call through the full confirmation and execution
// lifecycle and prints the outcome. Arguments come either from a JSON
// payload or from key=value pairs; pairs are coerced against the tool's
// input schema. autoApprove skips the interactive prompt.
func CallTool(name, argsJSON string, pairs []string, autoApprove bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	var args map[string]any
	switch {
	case argsJSON != "":
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return fmt.Errorf("invalid JSON payload: %w", err)
		}
	case len(pairs) > 0:
		args, err = argparser.Parse(pairs, toolSchema(client, name))
		if err != nil {
			return err
		}
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()
	bridge := transcript.NewBridge(transcript.NewStore(database))

	service := confirm.NewService(confirm.DefaultRule)
	defer service.Shutdown()
	service.SetAllowTools(cfg.Approval.AllowTools)
	service.SetSkip(cfg.Approval.SkipConfirm || autoApprove)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go promptLoop(ctx, service)

	runner := toolcall.NewRunner(service, client, bridge)
	defer runner.Shutdown()

	inv := runner.Run(ctx, toolcall.Call{Name: name, Args: args})
	if inv == nil {
		return fmt.Errorf("tool call was not accepted")
	}
	switch inv.State {
	case toolcall.StateComplete:
		fmt.Println(inv.Output)
		return nil
	case toolcall.StateCancelled:
		fmt.Println("Cancelled:", inv.Err)
		return nil
	default:
		return fmt.Errorf("%s", inv.Err)
	}
}

// toolSchema fetches the input schema for one tool, best effort; coercion
// falls back to literal inference when the catalog is unreachable.
func toolSchema(client *tasky.Client, name string) map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tools, err := client.ListTools(ctx)
	if err != nil {
		return nil
	}
	for _, tool := range tools {
		if tool.Name == name {
			return tool.InputSchema
		}
	}
	return nil
}

// promptLoop answers confirmation requests from stdin.
func promptLoop(ctx context.Context, service *confirm.Service) {
	reader := bufio.NewReader(os.Stdin)
	for req := range service.Subscribe(ctx) {
		encoded, _ := json.Marshal(req.Args)
		fmt.Printf("Run %s with args %s? [y/N] ", req.Name, encoded)
		line, err := reader.ReadString('\n')
		if err != nil {
			service.Resolve(req.ID, false)
			continue
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		service.Resolve(req.ID, answer == "y" || answer == "yes")
	}
}

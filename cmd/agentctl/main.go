// agentctl is a command-line front end for the tool bridge: list the tool
// catalog, invoke a single tool, or send a prompt to the model with or
// without tool access.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"college_pathfinder/config"
	"college_pathfinder/logger"
	"college_pathfinder/mcpbridge"
)

func main() {
	listTools := flag.Bool("list", false, "List available tools and exit")
	toolName := flag.String("tool", "", "Name of the tool to invoke")
	toolArgs := flag.String("args", "{}", "JSON object with arguments for the selected tool")
	prompt := flag.String("prompt", "", "Send a free-form prompt to the model")
	useMCP := flag.Bool("use-mcp", false, "Allow the model to use tools while responding to -prompt")
	system := flag.String("system", "", "Optional system prompt")
	maxToolInteractions := flag.Int("max-tool-interactions", 8, "Safety limit for tool calls in a single prompt")
	flag.Parse()

	cfg := config.Load()
	if err := logger.Init(cfg); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	connector := mcpbridge.NewConnector(cfg)
	defer connector.Close()

	ctx := context.Background()

	if *prompt != "" {
		runPrompt(ctx, cfg, connector, *prompt, *system, *useMCP, *maxToolInteractions)
		return
	}

	if *listTools || *toolName == "" {
		printCatalog(ctx, connector)
		if *toolName == "" {
			return
		}
		fmt.Println()
	}

	runTool(ctx, connector, *toolName, *toolArgs)
}

func runPrompt(ctx context.Context, cfg *config.Config, connector *mcpbridge.Connector, prompt, system string, useMCP bool, maxToolInteractions int) {
	agent, err := mcpbridge.NewAgent(ctx, cfg, connector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent setup failed: %v\n", err)
		os.Exit(1)
	}

	var text string
	if useMCP {
		text, err = agent.AskWithTools(ctx, prompt, system, maxToolInteractions)
	} else {
		text, err = agent.Ask(ctx, prompt, system)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "prompt failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(text)
}

func printCatalog(ctx context.Context, connector *mcpbridge.Connector) {
	catalog, err := connector.DescribeTools(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing tools failed: %v\n", err)
		os.Exit(1)
	}
	if len(catalog) == 0 {
		fmt.Println("No tools are currently registered.")
		return
	}

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Tools available:")
	for _, name := range names {
		info := catalog[name]
		fmt.Printf("- %s: %s\n", name, info.Usage)

		argNames := make([]string, 0, len(info.Arguments))
		for argName := range info.Arguments {
			argNames = append(argNames, argName)
		}
		sort.Strings(argNames)
		for _, argName := range argNames {
			arg := info.Arguments[argName]
			requirement := "optional"
			if arg.Required {
				requirement = "required"
			}
			fmt.Printf("    %s (%s, %s) - %s\n", argName, arg.Type, requirement, arg.Description)
		}
	}
}

func runTool(ctx context.Context, connector *mcpbridge.Connector, name, rawArgs string) {
	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -args JSON: %v\n", err)
		os.Exit(1)
	}

	result, err := connector.CallTool(ctx, name, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tool call failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tool %q response:\n", name)
	fmt.Println(mcpbridge.FormatResult(result))
}

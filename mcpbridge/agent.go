package mcpbridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"google.golang.org/genai"

	"college_pathfinder/config"
	"college_pathfinder/logger"
)

// Agent sends prompts to the model, optionally letting it call the
// connector's tools while answering.
type Agent struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
	connector       *Connector
}

// NewAgent builds an agent from configuration. The connector may be nil
// when only plain prompting is needed.
func NewAgent(ctx context.Context, cfg *config.Config, connector *Connector) (*Agent, error) {
	apiKey := strings.TrimSpace(cfg.Agent.APIKey)
	if apiKey == "" {
		return nil, errors.New("agent api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Agent{
		client:          client,
		model:           cfg.Agent.Model,
		maxOutputTokens: int32(cfg.Agent.MaxOutputTokens),
		connector:       connector,
	}, nil
}

// Ask sends a prompt without exposing any tools and returns the text reply.
func (a *Agent) Ask(ctx context.Context, prompt, system string) (string, error) {
	config := a.baseConfig(system)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		return "", errors.New("model returned an empty response")
	}
	return text, nil
}

// AskWithTools sends a prompt with the tool catalog attached and drives the
// call-tool/respond loop until the model produces a final text answer.
// maxToolInteractions bounds the number of tool calls in one exchange.
func (a *Agent) AskWithTools(ctx context.Context, prompt, system string, maxToolInteractions int) (string, error) {
	if a.connector == nil {
		return "", errors.New("no tool connector configured")
	}
	if maxToolInteractions <= 0 {
		maxToolInteractions = 8
	}

	tools, err := a.connector.ListTools(ctx)
	if err != nil {
		return "", fmt.Errorf("list tools: %w", err)
	}

	config := a.baseConfig(system)
	config.Tools = []*genai.Tool{{FunctionDeclarations: declarationsFromTools(tools)}}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	interactions := 0

	for {
		resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", errors.New("model returned no candidates")
		}
		modelTurn := resp.Candidates[0].Content
		contents = append(contents, modelTurn)

		calls := functionCalls(modelTurn)
		if len(calls) == 0 {
			text := collectText(resp)
			if text == "" {
				return "", errors.New("model returned an empty response")
			}
			return text, nil
		}

		if interactions >= maxToolInteractions {
			return "", errors.New("exceeded maximum allowed tool interactions")
		}

		var responseParts []*genai.Part
		for _, call := range calls {
			interactions++
			logger.Debug("Agent tool call", "tool", call.Name, "interaction", interactions)

			response := map[string]any{}
			result, err := a.connector.CallTool(ctx, call.Name, call.Args)
			if err != nil {
				response["error"] = err.Error()
			} else if result.Structured != nil {
				response["result"] = result.Structured
			} else {
				response["result"] = result.Text
			}

			responseParts = append(responseParts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: response,
				},
			})
		}

		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: responseParts,
		})
	}
}

func (a *Agent) baseConfig(system string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: a.maxOutputTokens,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return config
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// declarationsFromTools converts the MCP tool catalog into the model's
// function-declaration format.
func declarationsFromTools(tools []mcp.Tool) []*genai.FunctionDeclaration {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		description := tool.Description
		if description == "" {
			description = tool.Name
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: description,
			Parameters:  schemaFromInput(tool.InputSchema),
		})
	}
	return declarations
}

func schemaFromInput(input mcp.ToolInputSchema) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
		Required:   input.Required,
	}
	for name, raw := range input.Properties {
		property, ok := raw.(map[string]any)
		if !ok {
			schema.Properties[name] = &genai.Schema{Type: genai.TypeString}
			continue
		}
		schema.Properties[name] = schemaFromProperty(property)
	}
	return schema
}

func schemaFromProperty(property map[string]any) *genai.Schema {
	schema := &genai.Schema{}
	if description, ok := property["description"].(string); ok {
		schema.Description = description
	}

	switch property["type"] {
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
		if items, ok := property["items"].(map[string]any); ok {
			schema.Items = schemaFromProperty(items)
		} else {
			schema.Items = &genai.Schema{Type: genai.TypeString}
		}
	case "object":
		schema.Type = genai.TypeObject
	default:
		schema.Type = genai.TypeString
	}
	return schema
}

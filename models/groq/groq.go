package groq

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	models "github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/stores"
)

const (
	GroqBaseURL  = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "openai/gpt-oss-20b"
)

// Groq_Model implements the Model interface for the Groq API.
// Groq uses the OpenAI-compatible chat-completions format.
type Groq_Model struct {
	Model        string // Model identifier (e.g., "openai/gpt-oss-20b")
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	SystemPrompt string // Optional: system prompt prepended to every request
	BaseURL      string // Optional: custom API base URL (defaults to Groq)
	APIKey       string // Optional: explicit API key (defaults to GROQ_API_KEY env)
	APIKeyEnv    string // Optional: environment variable name for the API key
}

// New_Groq_Model builds a provider with the sampling parameters the service
// uses everywhere (temperature 0.7, top_p 0.9).
func New_Groq_Model(model, apiKey, systemPrompt string) *Groq_Model {
	return &Groq_Model{
		Model:        model,
		APIKey:       apiKey,
		SystemPrompt: systemPrompt,
		Temperature:  Float64(0.7),
		TopP:         Float64(0.9),
	}
}

// Model_Request implements the Model interface
func (g *Groq_Model) Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (models.Model_Response, error) {
	if request.User_Message == nil && request.Tool_Results == nil {
		return models.Model_Response{}, fmt.Errorf("request must contain either user message or tool results")
	}

	var msg models.User_Message
	if request.User_Message != nil {
		msg = *request.User_Message
	}

	modelToUse := g.Model
	if modelToUse == "" {
		modelToUse = DefaultModel
	}

	groqResponse, err := g.makeRequest(modelToUse, msg, request, tools, conversationHistory)
	if err != nil {
		return models.Model_Response{}, err
	}

	return g.groqResponseToModelResponse(groqResponse)
}

// Stream_Model_Request implements the Model interface for streaming
func (g *Groq_Model) Stream_Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (<-chan models.Model_Response, <-chan error) {
	if request.User_Message == nil && request.Tool_Results == nil {
		errChan := make(chan error, 1)
		respChan := make(chan models.Model_Response)
		errChan <- fmt.Errorf("request must contain either user message or tool results")
		close(errChan)
		close(respChan)
		return respChan, errChan
	}

	var msg models.User_Message
	if request.User_Message != nil {
		msg = *request.User_Message
	}

	modelToUse := g.Model
	if modelToUse == "" {
		modelToUse = DefaultModel
	}

	return g.makeStreamRequest(modelToUse, msg, request, tools, conversationHistory)
}

// groqResponseToModelResponse converts a Groq response to the standard Model_Response
func (g *Groq_Model) groqResponseToModelResponse(response GroqResponse) (models.Model_Response, error) {
	modelResponse := models.Model_Response{}

	for _, choice := range response.Choices {
		// Handle text content
		if choice.Message.Content != nil {
			switch content := choice.Message.Content.(type) {
			case string:
				if content != "" {
					text := content
					modelResponse.Parts = append(modelResponse.Parts, models.Model_Part{
						Text: &text,
					})
				}
			}
		}

		// Handle tool calls
		for _, toolCall := range choice.Message.ToolCalls {
			if toolCall.Type == "function" {
				var args map[string]interface{}
				if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
					log.Printf("Warning: Failed to unmarshal tool call arguments: %v", err)
					args = map[string]interface{}{}
				}

				modelResponse.Parts = append(modelResponse.Parts, models.Model_Part{
					FunctionCall: &models.FunctionCall{
						ID:   toolCall.ID,
						Name: toolCall.Function.Name,
						Args: args,
					},
				})
			}
		}
	}

	return modelResponse, nil
}

// makeRequest sends a non-streaming request to Groq
func (g *Groq_Model) makeRequest(model string, message models.User_Message, request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (GroqResponse, error) {
	requestBody, err := g.createGroqRequest(model, message, request, tools, conversationHistory, false)
	if err != nil {
		return GroqResponse{}, fmt.Errorf("failed to create Groq request: %w", err)
	}

	jsonBytes, err := json.Marshal(requestBody)
	if err != nil {
		return GroqResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	baseURL := g.BaseURL
	if baseURL == "" {
		baseURL = GroqBaseURL
	}

	req, err := http.NewRequest("POST", baseURL, bytes.NewReader(jsonBytes))
	if err != nil {
		return GroqResponse{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	g.setHeaders(req)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return GroqResponse{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return GroqResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return GroqResponse{}, fmt.Errorf("Groq API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return GroqResponse{}, fmt.Errorf("Groq API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var response GroqResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return GroqResponse{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return response, nil
}

// makeStreamRequest sends a streaming request to Groq
func (g *Groq_Model) makeStreamRequest(model string, message models.User_Message, request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)

		requestBody, err := g.createGroqRequest(model, message, request, tools, conversationHistory, true)
		if err != nil {
			errChan <- fmt.Errorf("failed to create Groq request: %w", err)
			return
		}

		jsonBytes, err := json.Marshal(requestBody)
		if err != nil {
			errChan <- fmt.Errorf("failed to marshal request body: %w", err)
			return
		}

		baseURL := g.BaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
		}

		req, err := http.NewRequest("POST", baseURL, bytes.NewReader(jsonBytes))
		if err != nil {
			errChan <- fmt.Errorf("failed to create HTTP request: %w", err)
			return
		}

		g.setHeaders(req)

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			errChan <- fmt.Errorf("HTTP request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var errResp ErrorResponse
			if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
				errChan <- fmt.Errorf("Groq API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
			} else {
				errChan <- fmt.Errorf("Groq API error: status %d, body: %s", resp.StatusCode, string(body))
			}
			return
		}

		// Track accumulated tool calls across stream chunks
		toolCallAccumulator := make(map[int]*ToolCall)

		flushToolCalls := func() {
			if len(toolCallAccumulator) == 0 {
				return
			}
			modelResp := models.Model_Response{}
			for _, tc := range toolCallAccumulator {
				var args map[string]interface{}
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					log.Printf("Warning: Failed to unmarshal final tool call arguments: %v", err)
					args = map[string]interface{}{}
				}
				modelResp.Parts = append(modelResp.Parts, models.Model_Part{
					FunctionCall: &models.FunctionCall{
						ID:   tc.ID,
						Name: tc.Function.Name,
						Args: args,
					},
				})
			}
			respChan <- modelResp
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					flushToolCalls()
					return
				}
				errChan <- fmt.Errorf("error reading stream: %w", err)
				return
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// Handle SSE format
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				flushToolCalls()
				return
			}

			var streamResp StreamResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				log.Printf("Warning: Failed to unmarshal stream chunk: %v, data: %s", err, data)
				continue
			}

			for _, choice := range streamResp.Choices {
				if choice.Delta == nil {
					continue
				}

				modelResp := models.Model_Response{}

				// Handle text delta
				if choice.Delta.Content != nil {
					switch content := choice.Delta.Content.(type) {
					case string:
						if content != "" {
							text := content
							modelResp.Parts = append(modelResp.Parts, models.Model_Part{
								Text: &text,
							})
						}
					}
				}

				// Handle tool call deltas (accumulate)
				for _, toolCall := range choice.Delta.ToolCalls {
					idx := choice.Index
					if existing, ok := toolCallAccumulator[idx]; ok {
						existing.Function.Arguments += toolCall.Function.Arguments
					} else {
						toolCallAccumulator[idx] = &ToolCall{
							ID:   toolCall.ID,
							Type: toolCall.Type,
							Function: ToolCallFunction{
								Name:      toolCall.Function.Name,
								Arguments: toolCall.Function.Arguments,
							},
						}
					}
				}

				// Send text parts immediately
				if len(modelResp.Parts) > 0 {
					respChan <- modelResp
				}
			}
		}
	}()

	return respChan, errChan
}

// setHeaders sets the required headers for Groq API requests
func (g *Groq_Model) setHeaders(req *http.Request) {
	apiKey := g.APIKey
	if apiKey == "" {
		apiKeyEnv := g.APIKeyEnv
		if apiKeyEnv == "" {
			apiKeyEnv = "GROQ_API_KEY"
		}
		apiKey = os.Getenv(apiKeyEnv)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// createGroqRequest builds the request body for the Groq API
func (g *Groq_Model) createGroqRequest(model string, message models.User_Message, request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message, stream bool) (GroqRequest, error) {
	messages := []Message{}

	// System prompt first, then per-session context so the model always sees
	// the exact phone number to pass to the emergency tool.
	if g.SystemPrompt != "" {
		messages = append(messages, Message{
			Role:    "system",
			Content: g.SystemPrompt,
		})
	}
	if request.Session_Context != "" {
		messages = append(messages, Message{
			Role:    "system",
			Content: request.Session_Context,
		})
	}

	// 1. Process conversation history
	for _, histMsg := range conversationHistory {
		msg, err := g.convertHistoryMessage(histMsg)
		if err != nil {
			log.Printf("Warning: Failed to convert history message %d: %v", histMsg.ID, err)
			continue
		}
		if msg != nil {
			messages = append(messages, *msg)
		}
	}

	// 2. Handle tool results for the current turn
	if request.Tool_Results != nil && len(*request.Tool_Results) > 0 {
		for _, tr := range *request.Tool_Results {
			// Tool results in OpenAI format require the tool_call_id
			toolCallID := tr.Tool_ID
			messages = append(messages, Message{
				Role:       "tool",
				Content:    tr.Tool_Output,
				ToolCallID: &toolCallID,
			})
		}
	} else {
		// 3. Process current user message only if no tool results
		userMsg := g.convertUserMessage(message)
		if userMsg != nil {
			messages = append(messages, *userMsg)
		}
	}

	if len(messages) == 0 {
		return GroqRequest{}, fmt.Errorf("cannot create Groq request with no messages")
	}

	groqReq := GroqRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
	}

	if len(tools) > 0 {
		groqReq.Tools = ConvertToGroqTools(tools)
		groqReq.ToolChoice = "auto"
	}

	if g.Temperature != nil {
		groqReq.Temperature = g.Temperature
	}
	if g.TopP != nil {
		groqReq.TopP = g.TopP
	}
	if g.MaxTokens != nil {
		groqReq.MaxTokens = g.MaxTokens
	}

	return groqReq, nil
}

// convertHistoryMessage converts a stored message to Groq Message format
func (g *Groq_Model) convertHistoryMessage(histMsg stores.Message) (*Message, error) {
	if histMsg.PartsJSON == "" || histMsg.PartsJSON == "{}" || histMsg.PartsJSON == "null" {
		return nil, nil
	}

	role := histMsg.Role

	if role == "user" {
		var userParts []models.User_Part
		if err := json.Unmarshal([]byte(histMsg.PartsJSON), &userParts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user parts: %w", err)
		}

		// Check if this is a function response
		for _, part := range userParts {
			if part.FunctionResponse != nil {
				toolCallID := part.FunctionResponse.ID
				responseBytes, _ := json.Marshal(part.FunctionResponse.Response)
				return &Message{
					Role:       "tool",
					Content:    string(responseBytes),
					ToolCallID: &toolCallID,
				}, nil
			}
		}

		// Regular user message
		content := joinUserText(userParts)
		if content == "" {
			return nil, nil
		}
		return &Message{
			Role:    "user",
			Content: content,
		}, nil

	} else if role == "model" {
		var modelParts []models.Model_Part
		if err := json.Unmarshal([]byte(histMsg.PartsJSON), &modelParts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model parts: %w", err)
		}

		msg := &Message{
			Role: "assistant",
		}

		var textContent strings.Builder
		var toolCalls []ToolCall

		for _, part := range modelParts {
			if part.Text != nil && *part.Text != "" {
				textContent.WriteString(*part.Text)
			}
			if part.FunctionCall != nil {
				argsBytes, _ := json.Marshal(part.FunctionCall.Args)
				toolCalls = append(toolCalls, ToolCall{
					ID:   part.FunctionCall.ID,
					Type: "function",
					Function: ToolCallFunction{
						Name:      part.FunctionCall.Name,
						Arguments: string(argsBytes),
					},
				})
			}
		}

		if textContent.Len() > 0 {
			msg.Content = textContent.String()
		}
		if len(toolCalls) > 0 {
			msg.ToolCalls = toolCalls
		}

		if msg.Content == nil && len(msg.ToolCalls) == 0 {
			return nil, nil
		}

		return msg, nil
	}

	return nil, fmt.Errorf("unknown role: %s", role)
}

// convertUserMessage converts a User_Message to Groq Message format
func (g *Groq_Model) convertUserMessage(message models.User_Message) *Message {
	if len(message.Content.Parts) == 0 {
		return nil
	}

	content := joinUserText(message.Content.Parts)
	if content == "" {
		return nil
	}

	return &Message{
		Role:    "user",
		Content: content,
	}
}

func joinUserText(parts []models.User_Part) string {
	var textParts []string
	for _, part := range parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}
	return strings.Join(textParts, "\n")
}

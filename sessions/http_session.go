package sessions

import (
	"encoding/json"
	"fmt"

	"github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/stores"
)

// RunInteraction handles one complete user turn: save the message, run the
// agent, execute any auto-approved tool calls, feed the results back, and
// repeat until the model produces a plain text reply. Returns the final reply
// text and the name of the tool called ("None" if the model answered directly).
func (s *ChatSession) RunInteraction(userText string) (string, string, error) {
	userMessage := models.TextMessage(userText)
	if err := s.saveUserMessage(userMessage); err != nil {
		s.Logger.Printf("Error saving user message: %v", err)
	}

	sessionContext := SessionContext(s.Profile)
	currentReq := models.Model_Request{
		User_Message:    &userMessage,
		Session_Context: sessionContext,
	}

	toolCalled := "None"
	finalText := ""
	iteration := 0

	for {
		iteration++

		// Tool results are saved as they execute; only fetch here.
		history, err := s.fetchHistory()
		if err != nil {
			return "", toolCalled, err
		}

		response, err := s.Agent.Run(currentReq, history)
		if err != nil {
			s.Logger.Printf("Agent error on iteration %d: %v", iteration, err)
			return "", toolCalled, fmt.Errorf("agent error: %w", err)
		}

		toolResults, executed, text, err := s.processResponseForToolsAndText(response)
		if err != nil {
			return "", toolCalled, fmt.Errorf("error processing tools: %w", err)
		}
		if len(toolResults) > 0 {
			toolCalled = toolResults[0].Tool_Name
		}

		if !executed {
			finalText = text
			if finalText != "" {
				textPart := models.Model_Part{Text: &finalText}
				if err := s.Store.SaveMessage(s.Profile.ID, "model", "model_message", []models.Model_Part{textPart}, ""); err != nil {
					s.Logger.Printf("Error saving final text message: %v", err)
				}
			}
			break
		}

		// Next iteration carries the tool results back to the model.
		currentReq = models.Model_Request{
			Tool_Results:    &toolResults,
			Session_Context: sessionContext,
		}
	}

	return finalText, toolCalled, nil
}

// fetchHistory retrieves and sanitizes the transcript for provider conversion.
func (s *ChatSession) fetchHistory() ([]stores.Message, error) {
	history, err := s.Store.FetchHistory(s.Profile.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return stores.SanitizeHistory(history), nil
}

// saveUserMessage saves a user message to the store
func (s *ChatSession) saveUserMessage(userMessage models.User_Message) error {
	userPartsToSave := make([]models.User_Part, 0, len(userMessage.Content.Parts))
	userPartsToSave = append(userPartsToSave, userMessage.Content.Parts...)
	return s.Store.SaveMessage(s.Profile.ID, "user", "user_message", userPartsToSave, "")
}

// processResponseForToolsAndText saves the model response, executes any
// auto-approved function calls, and extracts the text content.
func (s *ChatSession) processResponseForToolsAndText(response models.Model_Response) ([]models.Tool_Result, bool, string, error) {
	if len(response.Parts) == 0 {
		return nil, false, "", nil
	}

	toolResults := []models.Tool_Result{}
	executedAny := false
	finalText := ""

	msgType := "model_message"
	var functionID string
	functionCalls := []models.FunctionCall{}

	for i, part := range response.Parts {
		if part.FunctionCall != nil {
			msgType = "function_call"
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("func_%s_%d", part.FunctionCall.Name, i)
			}
			if functionID == "" {
				functionID = id
			}
			functionCalls = append(functionCalls, models.FunctionCall{
				ID:   id,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
		if part.Text != nil {
			finalText += *part.Text
		}
	}

	// Save the model response first
	if err := s.Store.SaveMessage(s.Profile.ID, "model", msgType, response.Parts, functionID); err != nil {
		return nil, false, "", fmt.Errorf("failed to save model response: %w", err)
	}

	for _, fc := range functionCalls {
		autoApproved, err := s.Agent.ApproveTool(fc.Name, fc.Args)
		if err != nil {
			s.Logger.Printf("Error checking tool approval for %s: %v", fc.Name, err)
			continue
		}
		if !autoApproved {
			s.Logger.Printf("Tool %s requires approval; skipping", fc.Name)
			continue
		}

		s.Logger.Printf("Executing tool %s", fc.Name)
		toolResult, err := s.Agent.ExecuteTool(fc.Name, fc.Args, s.Profile.ID)
		if err != nil {
			s.Logger.Printf("Tool execution error for %s: %v", fc.Name, err)
		}

		// Save tool result so the transcript keeps the full cycle
		var resultMap map[string]interface{}
		if err := json.Unmarshal([]byte(toolResult), &resultMap); err != nil {
			resultMap = map[string]interface{}{"raw_output": toolResult}
		}
		toolResponsePart := models.User_Part{
			FunctionResponse: &models.FunctionResponse{
				ID:       fc.ID,
				Name:     fc.Name,
				Response: resultMap,
			},
		}
		if err := s.Store.SaveMessage(s.Profile.ID, "user", "function_response", []models.User_Part{toolResponsePart}, fc.ID); err != nil {
			s.Logger.Printf("Failed to save tool result for %s: %v", fc.Name, err)
		}

		toolResults = append(toolResults, models.Tool_Result{
			Tool_ID:     fc.ID,
			Tool_Name:   fc.Name,
			Tool_Output: toolResult,
		})
		executedAny = true
	}

	return toolResults, executedAny, finalText, nil
}

// GetChatHistory retrieves and converts the transcript to the API response format
func (s *ChatSession) GetChatHistory() ([]models.ChatMessageResponse, error) {
	dbHistory, err := s.Store.FetchHistory(s.Profile.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	apiHistory := make([]models.ChatMessageResponse, 0, len(dbHistory))
	for _, msg := range dbHistory {
		apiMsg := models.ChatMessageResponse{
			ID:             msg.ID,
			CreatedAt:      msg.CreatedAt,
			ConversationID: msg.ConversationID,
			Sequence:       msg.Sequence,
			Role:           msg.Role,
			Type:           msg.Type,
			FunctionID:     msg.FunctionID,
		}

		if msg.PartsJSON != "" && msg.PartsJSON != "{}" && msg.PartsJSON != "null" {
			var unmarshalledParts interface{}
			if err := json.Unmarshal([]byte(msg.PartsJSON), &unmarshalledParts); err != nil {
				s.Logger.Printf("Error unmarshalling PartsJSON for msg ID %d: %v", msg.ID, err)
			} else {
				apiMsg.Parts = unmarshalledParts

				switch msg.Type {
				case "user_message":
					var userParts []models.User_Part
					if err := json.Unmarshal([]byte(msg.PartsJSON), &userParts); err == nil {
						for _, p := range userParts {
							apiMsg.Text += p.Text
						}
					}
				case "model_message":
					var modelParts []models.Model_Part
					if err := json.Unmarshal([]byte(msg.PartsJSON), &modelParts); err == nil {
						for _, p := range modelParts {
							if p.Text != nil {
								apiMsg.Text += *p.Text
							}
						}
					}
				}
			}
		}

		apiHistory = append(apiHistory, apiMsg)
	}

	return apiHistory, nil
}

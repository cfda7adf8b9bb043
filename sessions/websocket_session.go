package sessions

import (
	"encoding/json"
	"fmt"

	"github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/stores"
)

// RunInteraction handles one complete streaming agent turn over the WebSocket.
// Text deltas are forwarded to the client as they arrive; tool calls execute
// between iterations and their results feed the next model call.
func (as *AgentSession) RunInteraction(userText string) error {
	userMessage := models.TextMessage(userText)
	if err := as.saveUserMessage(&userMessage); err != nil {
		as.Logger.Printf("Error saving user message: %v", err)
	}

	sessionContext := SessionContext(as.Profile)
	currentReq := models.Model_Request{
		User_Message:    &userMessage,
		Session_Context: sessionContext,
	}

	toolCalled := "None"

	for {
		if err := as.fetchHistory(); err != nil {
			as.Writer.WriteError("Failed to fetch history")
			return err
		}

		resChan, errChan := as.Agent.Run_Stream(currentReq, as.History)

		accumulatedParts, err := as.processStream(resChan, errChan)
		if err != nil {
			return err
		}

		toolResults, executed, err := as.processAccumulatedParts(accumulatedParts)
		if err != nil {
			return err
		}
		if len(toolResults) > 0 {
			toolCalled = toolResults[0].Tool_Name
		}

		if !executed {
			break
		}

		currentReq = models.Model_Request{
			Tool_Results:    &toolResults,
			Session_Context: sessionContext,
		}
	}

	return as.Writer.WriteDone(toolCalled)
}

// fetchHistory retrieves the latest sanitized transcript
func (as *AgentSession) fetchHistory() error {
	history, err := as.Store.FetchHistory(as.Profile.ID, 0)
	if err != nil {
		as.Logger.Printf("Error fetching history: %v", err)
		return &AgentError{Message: "Failed to fetch history", Fatal: false}
	}
	as.History = stores.SanitizeHistory(history)
	return nil
}

// saveUserMessage saves a user message to the store
func (as *AgentSession) saveUserMessage(userMsg *models.User_Message) error {
	parts := make([]models.User_Part, 0, len(userMsg.Content.Parts))
	parts = append(parts, userMsg.Content.Parts...)
	return as.Store.SaveMessage(as.Profile.ID, "user", "user_message", parts, "")
}

// processStream forwards stream chunks to the client and accumulates parts
func (as *AgentSession) processStream(resChan <-chan models.Model_Response, errChan <-chan error) ([]models.Model_Part, error) {
	var accumulated []models.Model_Part

	for {
		select {
		case chunk, ok := <-resChan:
			if !ok {
				return accumulated, nil
			}
			accumulated = append(accumulated, chunk.Parts...)
			if err := as.Writer.WriteResponse(chunk); err != nil {
				as.Logger.Printf("Error writing stream chunk: %v", err)
				return nil, &AgentError{Message: "Error writing stream chunk", Fatal: true}
			}

		case streamErr, ok := <-errChan:
			if ok && streamErr != nil {
				as.Logger.Printf("Stream error: %v", streamErr)
				as.Writer.WriteError("Agent stream error: " + streamErr.Error())
				return nil, &AgentError{Message: "Agent stream error", Fatal: false}
			}
			if !ok {
				errChan = nil
			}
		}
	}
}

// processAccumulatedParts saves the response, executes auto-approved tool
// calls, and returns their results for the next iteration.
func (as *AgentSession) processAccumulatedParts(parts []models.Model_Part) ([]models.Tool_Result, bool, error) {
	if len(parts) == 0 {
		return nil, false, nil
	}

	toolResults := []models.Tool_Result{}
	executedAny := false

	msgType := "model_message"
	var functionID string
	functionCalls := []models.FunctionCall{}

	for i, part := range parts {
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
	}

	if err := as.Store.SaveMessage(as.Profile.ID, "model", msgType, parts, functionID); err != nil {
		as.Logger.Printf("Failed to save model response: %v", err)
		return nil, false, &AgentError{Message: "Failed to save model response", Fatal: false}
	}

	for _, fc := range functionCalls {
		autoApproved, err := as.Agent.ApproveTool(fc.Name, fc.Args)
		if err != nil {
			as.Logger.Printf("Error checking tool approval for %s (ID: %s): %v", fc.Name, fc.ID, err)
			continue
		}
		if !autoApproved {
			as.Logger.Printf("Tool %s requires approval; skipping", fc.Name)
			continue
		}

		as.Logger.Printf("Executing tool %s (ID: %s)", fc.Name, fc.ID)
		toolResult, err := as.Agent.ExecuteTool(fc.Name, fc.Args, as.Profile.ID)
		if err != nil {
			as.Logger.Printf("Tool execution error for %s: %v", fc.Name, err)
		}

		var resultMap map[string]interface{}
		if err := json.Unmarshal([]byte(toolResult), &resultMap); err != nil {
			resultMap = map[string]interface{}{"raw_output": toolResult}
		}

		// Notify the client that a tool ran
		if err := as.Writer.WriteResponse(map[string]interface{}{
			"type":          "tool_result",
			"function_name": fc.Name,
			"function_id":   fc.ID,
			"result":        resultMap,
		}); err != nil {
			as.Logger.Printf("Error writing tool result: %v", err)
		}

		toolResponsePart := models.User_Part{
			FunctionResponse: &models.FunctionResponse{
				ID:       fc.ID,
				Name:     fc.Name,
				Response: resultMap,
			},
		}
		if err := as.Store.SaveMessage(as.Profile.ID, "user", "function_response", []models.User_Part{toolResponsePart}, fc.ID); err != nil {
			as.Logger.Printf("Failed to save tool result for %s: %v", fc.Name, err)
		}

		toolResults = append(toolResults, models.Tool_Result{
			Tool_ID:     fc.ID,
			Tool_Name:   fc.Name,
			Tool_Output: toolResult,
		})
		executedAny = true
	}

	return toolResults, executedAny, nil
}

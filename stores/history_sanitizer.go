package stores

import (
	"log"
)

// SanitizeHistory ensures the transcript has a valid turn structure before it
// is converted into a provider request. Truncated or corrupted transcripts can
// otherwise break the chat-completions API:
//   - history must not start with an orphaned function_call/function_response
//   - every function_call needs a function_response after it, except trailing
//     calls whose response arrives in the current turn's Tool_Results
func SanitizeHistory(msgs []Message) []Message {
	if len(msgs) == 0 {
		return msgs
	}

	start := -1
	for i, msg := range msgs {
		if msg.Type == "user_message" || msg.Type == "model_message" {
			start = i
			break
		}
	}
	if start == -1 {
		log.Printf("[HISTORY] No valid starting point found, dropping %d messages", len(msgs))
		return []Message{}
	}
	if start > 0 {
		log.Printf("[HISTORY] Skipping %d orphaned leading messages (first was %s)", start, msgs[0].Type)
		msgs = msgs[start:]
	}

	result := make([]Message, 0, len(msgs))
	for i := 0; i < len(msgs); {
		msg := msgs[i]
		switch msg.Type {
		case "user_message", "model_message":
			result = append(result, msg)
			i++

		case "function_call":
			calls, responses, next := collectToolCycle(msgs, i)
			if responses > 0 || next >= len(msgs) {
				// Complete cycle, or trailing calls whose response is expected
				// in the current request.
				result = append(result, msgs[i:next]...)
			} else {
				log.Printf("[HISTORY] Removing %d orphaned function_call(s) at index %d", calls, i)
			}
			i = next

		case "function_response":
			// Orphaned response without a preceding call.
			log.Printf("[HISTORY] Removing orphaned function_response at index %d", i)
			i++

		default:
			log.Printf("[HISTORY] Unknown message type %q at index %d, including anyway", msg.Type, i)
			result = append(result, msg)
			i++
		}
	}

	return result
}

// collectToolCycle scans a run of function_calls followed by their
// function_responses and returns the counts plus the index after the cycle.
func collectToolCycle(msgs []Message, start int) (calls, responses, next int) {
	i := start
	for i < len(msgs) && msgs[i].Type == "function_call" {
		calls++
		i++
	}
	for i < len(msgs) && msgs[i].Type == "function_response" {
		responses++
		i++
	}
	return calls, responses, i
}

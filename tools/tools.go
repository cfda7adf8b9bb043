// Package tools provides the callable capabilities exposed to the agent.
//
// Available tools:
//   - Ask_Mental_Health_Specialist: therapist-persona response via a dedicated LLM
//   - Call_Emergency_Services: outbound phone call through the telephony provider
//
// Both tools report failures as user-safe strings rather than Go errors, so
// the model always receives something it can relay to the user.
package tools

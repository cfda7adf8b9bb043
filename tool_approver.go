package safespace

import "log"

// Both tools run without user confirmation: the specialist tool is a pure
// text delegation, and asking a user in crisis to approve the emergency call
// would defeat its purpose.
var autoApprovedTools = map[string]bool{
	"ask_mental_health_specialist": true,
	"call_emergency_services":      true,
}

// Tool_Approver checks whether a tool may run without explicit user approval.
func Tool_Approver(tool_name string, tool_args map[string]interface{}) (bool, error) {
	if autoApprovedTools[tool_name] {
		return true, nil
	}
	log.Printf("Tool %s is not auto-approved; refusing execution", tool_name)
	return false, nil
}

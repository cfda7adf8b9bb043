package tools

import (
	"github.com/safespace-ai/safespace/models"
)

// SpecialistTool returns the FunctionDeclaration for the therapist tool.
func SpecialistTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "ask_mental_health_specialist",
		Description: "Generate a therapeutic response using a clinical-psychologist persona. Use this ONLY for emotional, mental health, or personal well-being related queries. Responds with empathy, evidence-based guidance, and a supportive tone.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "The user's emotional concern or mental health question, passed through verbatim",
				},
			},
			Required: []string{"prompt"},
		},
		Callable: Ask_Mental_Health_Specialist,
	}
}

// EmergencyCallTool returns the FunctionDeclaration for the emergency call tool.
func EmergencyCallTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "call_emergency_services",
		Description: "Place an emergency call to the provided phone number via the telephony provider. Use this ONLY if the user expresses suicidal thoughts, self-harm, immediate danger, or a mental health crisis.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"phone": map[string]interface{}{
					"type":        "string",
					"description": "Phone number to call, exactly as given in the session context",
				},
			},
			Required: []string{"phone"},
		},
		Callable: Call_Emergency_Services,
	}
}

// DefaultTools returns the standard toolset for the Friday agent.
func DefaultTools() []models.FunctionDeclaration {
	return []models.FunctionDeclaration{
		SpecialistTool(),
		EmergencyCallTool(),
	}
}

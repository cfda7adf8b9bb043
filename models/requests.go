package models

type Model_Request struct {
	User_Message *User_Message  `json:"message,omitempty"`
	Tool_Results *[]Tool_Result `json:"tool_results,omitempty"`
	// Session_Context optionally carries per-session context (user name, phone)
	// injected as an additional system message so the model passes the exact
	// phone number to the emergency tool.
	Session_Context string `json:"session_context,omitempty"`
	// Response_Mode optionally indicates how the caller wants the reply delivered.
	// Supported values: "chat" (default), "voice".
	Response_Mode string `json:"response_mode,omitempty"`
}

type Tool_Result struct {
	Tool_ID     string `json:"tool_id"` // The tool call ID to match with the tool call
	Tool_Name   string `json:"tool_name"`
	Tool_Output string `json:"tool_output"`
}

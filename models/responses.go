package models

type Model_Response struct {
	Parts []Model_Part `json:"parts"`
}

// A part is either a text fragment or a function call.

type FunctionCall struct {
	ID   string                 `json:"id,omitempty"` // Unique ID for this specific call instance
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type Model_Part struct {
	Text         *string       `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

// Text returns the concatenated text content of the response parts.
func (r Model_Response) Text() string {
	out := ""
	for _, part := range r.Parts {
		if part.Text != nil {
			out += *part.Text
		}
	}
	return out
}

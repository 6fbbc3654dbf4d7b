package gemini

// Part is one piece of content.
type Part struct {
	Text string `json:"text"`
}

// Content is an ordered list of parts.
type Content struct {
	Parts []Part `json:"parts"`
}

// GenerateRequest is the body of models/{id}:generateContent.
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content Content `json:"content"`
}

// GenerateResponse is the success body of models/{id}:generateContent.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Model is one entry of the model catalog.
type Model struct {
	Name                       string   `json:"name"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// ModelList is the success body of GET models.
type ModelList struct {
	Models []Model `json:"models"`
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Input is a summarize call.
type Input struct {
	Text     string
	APIKey   string
	Model    string
	Language string
	Prompt   string
}

package classifier

// Sentiment verdicts. Unknown means the classifier could not decide with
// confidence; downstream treats it as insufficient evidence, never as negative.
const (
	VerdictPositive = "POSITIVE"
	VerdictNegative = "NEGATIVE"
	VerdictUnknown  = "UNKNOWN"
)

// Extraction confidence levels reported by the relevance call
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Relevance is the outcome of the relevance and extraction call
type Relevance struct {
	Relevant   bool
	Handle     string
	Confidence string
}

// Accepted reports whether the relevance outcome clears the acceptance bar:
// the classifier affirmed topical relevance AND extracted a handle with more
// than low confidence. Everything else counts as abstention.
func (r Relevance) Accepted() bool {
	return r.Relevant && r.Handle != "" && r.Confidence != ConfidenceLow
}

// Gemini API wire types

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type relevanceReply struct {
	IsRelevant bool   `json:"is_relevant"`
	Username   string `json:"username"`
	Confidence string `json:"confidence"`
}

type sentimentReply struct {
	Verdict string `json:"verdict"`
}

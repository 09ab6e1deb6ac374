package llm

import "encoding/json"

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentProductSearch         Intent = "product_search"
	IntentProductRecommendation Intent = "product_recommendation"
	IntentProductDetails        Intent = "product_details"
	IntentOrderHelp             Intent = "order_help"
	IntentOrderStatus           Intent = "order_status"
	IntentGeneralQuestion       Intent = "general_question"
	IntentGreeting              Intent = "greeting"
	IntentFarewell              Intent = "farewell"
	IntentComplaint             Intent = "complaint"
	IntentUnknown               Intent = "unknown"
)

// ParseIntent maps s onto a known Intent, falling back to IntentUnknown.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentProductSearch, IntentProductRecommendation, IntentProductDetails,
		IntentOrderHelp, IntentOrderStatus, IntentGeneralQuestion,
		IntentGreeting, IntentFarewell, IntentComplaint:
		return Intent(s)
	default:
		return IntentUnknown
	}
}

// LooseString decodes JSON strings and numbers into a string. Model output is
// not strict about scalar types, so identifiers arrive either way.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = LooseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = LooseString(num.String())
	return nil
}

// ExtractedEntities holds the structured details pulled out of a user message
// during intent classification.
type ExtractedEntities struct {
	ProductNames []string       `json:"product_names,omitempty"`
	Categories   []string       `json:"categories,omitempty"`
	Brands       []string       `json:"brands,omitempty"`
	PriceMin     *float64       `json:"price_min,omitempty"`
	PriceMax     *float64       `json:"price_max,omitempty"`
	OrderID      LooseString    `json:"order_id,omitempty"`
	Quantity     *int           `json:"quantity,omitempty"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

// IntentResult is the outcome of classifying a user message.
type IntentResult struct {
	Intent                Intent            `json:"intent"`
	Confidence            float64           `json:"confidence"`
	Entities              ExtractedEntities `json:"entities"`
	RequiresClarification bool              `json:"requires_clarification"`
	ClarificationQuestion string            `json:"clarification_question,omitempty"`
}

// Message is a single chat turn passed to the model.
type Message struct {
	Role    string
	Content string
}

// Tool describes a function the model may call, with a JSON schema for its
// parameters.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments map[string]any
}

// Reply is the model's answer to a tool-enabled completion: either content or
// a list of tool calls to execute.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolOutcome pairs an executed tool with its result, for feeding back into
// the model as context.
type ToolOutcome struct {
	Tool   string `json:"tool"`
	Result any    `json:"result"`
}

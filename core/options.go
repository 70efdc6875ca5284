package core

import "github.com/spf13/cast"

// Reserved prompt option keys.
const (
	OptionDocuments      = "documents"
	OptionHistory        = "history"
	OptionModel          = "model"
	OptionMaxTokens      = "max_tokens"
	OptionSystemPrompt   = "system_prompt"
	OptionConversationID = "conversation_id"
	OptionUserID         = "user_id"
)

// StringOption reads a string option, returning "" when absent.
func StringOption(options map[string]any, key string) string {
	v, ok := options[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Int64Option reads an integer option, returning 0 when absent or not numeric.
func Int64Option(options map[string]any, key string) int64 {
	v, ok := options[key]
	if !ok || v == nil {
		return 0
	}
	return cast.ToInt64(v)
}

// DocumentsOption reads the retrieved documents injected into a prompt.
func DocumentsOption(options map[string]any) []Document {
	docs, _ := options[OptionDocuments].([]Document)
	return docs
}

// HistoryOption reads the conversation history injected into a prompt.
func HistoryOption(options map[string]any) []Message {
	msgs, _ := options[OptionHistory].([]Message)
	return msgs
}

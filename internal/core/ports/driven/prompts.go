package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt for the given name. Unknown names are an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Prompt names used by the answer generator.
const (
	// PromptAnswerSystem is the system prompt sent with every answer request.
	// It has no placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerInstruction follows the question at the end of the answer
	// prompt. It has no placeholders.
	PromptAnswerInstruction = "answer_instruction"
)

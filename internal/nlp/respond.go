package nlp

import "fmt"

// FormatResponse turns a parsed command into a short human-readable
// acknowledgement. Unknown commands get a rephrase suggestion; low
// confidence gets a hedged phrasing.
func FormatResponse(cmd Command) string {
	if cmd.Category == CategoryUnknown {
		return fmt.Sprintf("I'm not sure what you mean by %q. Try saying something like 'add a new task' or 'search for meetings'.", cmd.RawInput)
	}

	if cmd.Confidence < 0.5 {
		return fmt.Sprintf("I think you want to %s, but I'm not sure. Could you rephrase that?", cmd.Category.Display())
	}

	return fmt.Sprintf("Understood! I'll %s for you.", cmd.Category.Display())
}

package context

// Assemble builds the final message list: bundle turns followed by the
// caller's turns, in that order.
func Assemble(bundle *Bundle, turns []Message) []Message {
	messages := make([]Message, 0, bundle.Len()+len(turns))
	messages = append(messages, bundle.Turns()...)
	messages = append(messages, turns...)
	return messages
}

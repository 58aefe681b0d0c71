package chat

// ValidateNames checks every tool name and message source against the strict
// name pattern. It runs before any request is built.
func ValidateNames(messages []Message, tools []ToolSchema) error {
	for _, t := range tools {
		if err := AssertValidName(t.Name); err != nil {
			return err
		}
	}
	for _, m := range messages {
		switch msg := m.(type) {
		case UserMessage:
			if err := AssertValidName(msg.Source); err != nil {
				return err
			}
		case AssistantMessage:
			if err := AssertValidName(msg.Source); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateCapabilities rejects a request that requires a capability the
// resolved model lacks. Checked before any transport call.
func ValidateCapabilities(model string, info ModelInfo, messages []Message, tools []ToolSchema, jsonOutput *bool) error {
	if !info.Vision && ContainsImage(messages) {
		return &CapabilityError{Model: model, Capability: "vision"}
	}
	if !info.FunctionCalling && len(tools) > 0 {
		return &CapabilityError{Model: model, Capability: "function calling"}
	}
	if !info.JSONOutput && jsonOutput != nil && *jsonOutput {
		return &CapabilityError{Model: model, Capability: "json output"}
	}
	return nil
}

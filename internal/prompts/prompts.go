package prompts

import (
	"bytes"
	"errors"
	"fmt"
)

// Render executes a prompt template with the provided data and returns the result.
// The data type should match the expected type for the given prompt ID.
//
// Example:
//
//	prompt, err := prompts.Render(prompts.Validate, prompts.ValidateData{
//	    Task:     task,
//	    Proposal: reply,
//	})
func Render(id PromptID, data any) (string, error) {
	if err := checkData(id, data); err != nil {
		return "", err
	}

	tmpl, err := globalRegistry.get(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Join(ErrTemplateExecution, fmt.Errorf("prompt %s: %w", id, err))
	}

	return buf.String(), nil
}

// List returns all registered prompt IDs.
func List() []PromptID {
	return globalRegistry.list()
}

// Exists checks if a prompt ID is registered.
func Exists(id PromptID) bool {
	_, err := globalRegistry.get(id)
	return err == nil
}

// GetTemplate returns the raw template source for a prompt ID.
func GetTemplate(id PromptID) (string, error) {
	return globalRegistry.getSource(id)
}

// checkData checks that data has the type the prompt expects.
func checkData(id PromptID, data any) error {
	var ok bool
	switch id {
	case Implement:
		_, ok = data.(ImplementData)
	case ImproveCode:
		_, ok = data.(ImproveCodeData)
	case ImproveTests:
		_, ok = data.(ImproveTestsData)
	case Validate:
		_, ok = data.(ValidateData)
	default:
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: prompt %s got %T", ErrInvalidData, id, data)
	}
	return nil
}

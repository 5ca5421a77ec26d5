package cmd

import "github.com/charmbracelet/huh"

// Wizard prompts. Each helper runs a one-field huh form with the
// keybinding help line visible.

func runField(f huh.Field) error {
	return huh.NewForm(huh.NewGroup(f)).WithShowHelp(true).Run()
}

// askText reads a line of text. An empty answer falls back to def,
// which is also shown as the placeholder.
func askText(title, description, def string) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}
	if def != "" {
		inp = inp.Placeholder(def)
	}
	if err := runField(inp); err != nil {
		return "", err
	}
	if value == "" {
		value = def
	}
	return value, nil
}

// askSecret reads a value with echo disabled.
func askSecret(title, description string) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}
	if err := runField(inp); err != nil {
		return "", err
	}
	return value, nil
}

// askChoice picks one label from a list, returning its index.
func askChoice(title string, labels []string) (int, error) {
	var idx int
	opts := make([]huh.Option[int], len(labels))
	for i, label := range labels {
		opts[i] = huh.NewOption(label, i)
	}
	sel := huh.NewSelect[int]().Title(title).Options(opts...).Value(&idx)
	if err := runField(sel); err != nil {
		return 0, err
	}
	return idx, nil
}

func askYesNo(title string, def bool) (bool, error) {
	value := def
	c := huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&value)
	if err := runField(c); err != nil {
		return false, err
	}
	return value, nil
}

// Package testing provides a scripted Confirmer for tests.
package testing

import "github.com/rileyhilliard/wpd/internal/guard"

var _ guard.Confirmer = (*Scripted)(nil)

// Scripted answers prompts from fixed lists and records what was asked.
type Scripted struct {
	Confirms []bool
	Answers  []string
	Prompts  []string
}

// Confirm implements guard.Confirmer. It returns false once Confirms runs out.
func (s *Scripted) Confirm(prompt string) (bool, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.Confirms) == 0 {
		return false, nil
	}
	ok := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return ok, nil
}

// Ask implements guard.Confirmer. It returns def once Answers runs out.
func (s *Scripted) Ask(prompt, def string) (string, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.Answers) == 0 {
		return def, nil
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}

package guard

import (
	"fmt"

	"github.com/rileyhilliard/wpd/internal/errors"
)

// ProductionTarget is the only target the branch gate applies to.
const ProductionTarget = "production"

// BranchGateDefault is the answer assumed when the operator just hits enter.
const BranchGateDefault = "Not at all"

// acceptedAnswers are the only replies that let a non-stable production
// deploy continue. Matching is exact.
var acceptedAnswers = map[string]bool{
	"y":         true,
	"Y":         true,
	"yes":       true,
	"Yes":       true,
	"buzz off":  true,
	"screw you": true,
}

// ConfirmBranch stops a production run whose branch is not the stable one
// unless the operator answers with one of the accepted replies.
func ConfirmBranch(c Confirmer, target, branch, stable string) error {
	if target != ProductionTarget || branch == stable {
		return nil
	}

	shown := branch
	if shown == "" {
		shown = "(default)"
	}
	prompt := fmt.Sprintf("You are trying to deploy the '%s' branch to production.\n"+
		"You should really only deploy a %s branch.\n"+
		"Do you know what you're doing?", shown, stable)

	answer, err := c.Ask(prompt, BranchGateDefault)
	if err != nil {
		return err
	}
	if !acceptedAnswers[answer] {
		return errors.New(errors.ErrDeclined,
			fmt.Sprintf("Refusing to deploy '%s' to production", shown),
			"Select the stable branch with 'wpd production stable deploy', or answer 'yes' to the prompt.")
	}
	return nil
}

package rules

import (
	"context"
	"strings"

	"qgispluginci/internal/validate"
)

type AuthorPresentRule struct{}

func (r *AuthorPresentRule) ID() string {
	return "author-present"
}

func (r *AuthorPresentRule) Title() string {
	return "Author And Email Present"
}

func (r *AuthorPresentRule) Description() string {
	return "Verifies that the manifest declares an author and a contact email."
}

func (r *AuthorPresentRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Plugin == nil {
		return validate.SkippedResult(target, r.ID(), "manifest not readable"), nil
	}
	var missing []string
	if strings.TrimSpace(target.Plugin.Author) == "" {
		missing = append(missing, "author")
	}
	if strings.TrimSpace(target.Plugin.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return validate.FailResult(target, r.ID(), "missing field(s): "+strings.Join(missing, ", ")), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&AuthorPresentRule{})
}

package issues

import "github.com/goliatone/go-errors"

var ErrIssueNotFound = errors.New("Issue not found", errors.CategoryNotFound).
	WithTextCode("ISSUE_NOT_FOUND").
	WithCode(errors.CodeNotFound)

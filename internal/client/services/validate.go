package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

// Draft is a post as entered by the user.
type Draft struct {
	Title   string
	Content string
	Tags    []string
	Files   []*models.LocalFile
}

type fieldCheck struct {
	name  string
	value any
	tag   string
}

// validateDraft checks d against limits. String lengths are counted in
// runes, so Thai text gets the same budget as Latin text.
func validateDraft(v *validator.Validate, d Draft, limits common.Limits) error {
	checks := []fieldCheck{
		{"title", d.Title, fmt.Sprintf("required,max=%d", limits.Post.TitleMaxLength)},
		{"content", d.Content, fmt.Sprintf("max=%d", limits.Post.ContentMaxLength)},
		{"tags", d.Tags, fmt.Sprintf("max=%d,dive,required,max=%d", limits.Post.MaxTags, limits.Post.TagMaxLength)},
		{"files", d.Files, fmt.Sprintf("max=%d,dive,required", limits.Media.MaxFiles)},
	}

	var problems []string
	for _, c := range checks {
		if err := v.Var(c.value, c.tag); err != nil {
			problems = append(problems, describe(c.name, err))
		}
	}

	for _, f := range d.Files {
		if f == nil {
			continue
		}
		if err := v.Var(f.Size, fmt.Sprintf("gte=0,lte=%d", limits.Media.MaxFileSize)); err != nil {
			problems = append(problems, fmt.Sprintf("file %s is larger than %d MiB", f.Name, limits.Media.MaxFileSize>>20))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func describe(field string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("%s: %v", field, err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s exceeds limit of %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

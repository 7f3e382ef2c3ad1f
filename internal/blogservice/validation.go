package blogservice

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/sushihentaime/inkwell/internal/common"
)

var (
	URLRX = regexp.MustCompile("^[a-z0-9]+(?:-[a-z0-9]+)*$")
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 3, 200), "title", "must be between 3 and 200 characters long")
}

func validateURL(v *common.Validator, url string) {
	v.Check(url != "", "url", "must be provided")
	v.Check(v.CheckStringLength(url, 3, 200), "url", "must be between 3 and 200 characters long")
	v.Check(URLRX.MatchString(url), "url", "must only contain lowercase letters, numbers, and hyphens")
}

func validateContent(v *common.Validator, content string) {
	v.Check(strings.TrimSpace(content) != "", "content", "must be provided")
}

func validateMeta(v *common.Validator, field, value string, max int) {
	v.Check(value != "", field, "must be provided")
	v.Check(len(value) <= max, field, "must not be more than "+strconv.Itoa(max)+" characters long")
}

// parseTags decodes a JSON array of tags. Blank tags are dropped.
func parseTags(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, common.Invalid(MsgInvalidTagsJSON)
	}

	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			clean = append(clean, tag)
		}
	}

	if len(clean) > MaxTags {
		return nil, common.Invalid(MsgTooManyTags)
	}

	return clean, nil
}

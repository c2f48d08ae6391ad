package enums

import "fmt"

// IssueType classifies the reported device problem.
type IssueType string

const (
	IssueTypeHardware IssueType = "hardware"
	IssueTypeSoftware IssueType = "software"
	IssueTypeOther    IssueType = "other"
)

var validIssueTypes = []IssueType{
	IssueTypeHardware,
	IssueTypeSoftware,
	IssueTypeOther,
}

func (i IssueType) String() string {
	return string(i)
}

func (i IssueType) IsValid() bool {
	for _, candidate := range validIssueTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

func ParseIssueType(value string) (IssueType, error) {
	for _, candidate := range validIssueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid issue type %q", value)
}

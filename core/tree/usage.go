package tree

// Usage is the semantic role of a node, derived from its schema definition.
type Usage string

const (
	UsageNone      Usage = ""
	UsageHeading   Usage = "heading"
	UsageTitle     Usage = "title"
	UsageTable     Usage = "table"
	UsageAxis      Usage = "axis"
	UsageMember    Usage = "member"
	UsageLineItems Usage = "line_items"
	UsageNumber    Usage = "number"
	UsageDate      Usage = "date"
	UsageTextBlock Usage = "text_block"
	UsageText      Usage = "text"
)

func (u Usage) String() string {
	if u == UsageNone {
		return "None"
	}
	return string(u)
}

package extract

import (
	"strings"

	"github.com/dhcgn/mbox2db/model"
)

// ClassifyLabels inspects an X-Gmail-Labels header value and reports whether
// the label set marks the message as Spam or Trash. Matching is by whole
// comma-separated token, case-insensitive, so labels like "Trashcan" do not
// count. The verdict only states facts; keeping or dropping the message is
// the caller's call.
func ClassifyLabels(labels string) model.LabelVerdict {
	var verdict model.LabelVerdict
	if labels == "" {
		return verdict
	}
	for _, token := range strings.Split(labels, ",") {
		switch strings.ToLower(strings.TrimSpace(token)) {
		case "spam":
			verdict.IsSpam = true
		case "trash":
			verdict.IsTrash = true
		}
	}
	return verdict
}

package review

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/amishk599/boardsync/internal/dedup"
	"github.com/amishk599/boardsync/internal/model"
)

// Verdict says what an upload would do with a record.
type Verdict int

const (
	Publish Verdict = iota
	Filtered
	PublishedBefore
	Duplicate
)

func (v Verdict) String() string {
	switch v {
	case Publish:
		return "publish"
	case Filtered:
		return "filtered"
	case PublishedBefore:
		return "published before"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Item is one batch record with its verdict.
type Item struct {
	Job     model.JobRecord
	Verdict Verdict
}

// Classify predicts, without touching the board, how each record in a batch
// would be handled. A record repeated later in the batch counts as a
// duplicate of the first, as it would during a real upload.
func Classify(jobs []model.JobRecord, f model.JobFilter, ledger model.PublishLedger, existing []model.Posting) ([]Item, error) {
	detector := dedup.NewDetector(existing)
	items := make([]Item, 0, len(jobs))
	for _, j := range jobs {
		item := Item{Job: j, Verdict: Publish}
		switch {
		case !f.Match(j):
			item.Verdict = Filtered
		default:
			done, err := ledger.HasPublished(j.UniqID)
			if err != nil {
				return nil, fmt.Errorf("checking ledger for %s: %w", j.UniqID, err)
			}
			if done {
				item.Verdict = PublishedBefore
			} else if detector.IsDuplicate(j) {
				item.Verdict = Duplicate
			} else {
				detector.Add(model.Posting{Title: j.Title, CompanyName: j.CompanyName})
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// ToPublish returns the items whose verdict is Publish.
func ToPublish(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Verdict == Publish {
			out = append(out, it)
		}
	}
	return out
}

// Markdown renders a description fragment for the terminal.
func Markdown(html string) string {
	out, err := md.NewConverter("", true, nil).ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(out)
}

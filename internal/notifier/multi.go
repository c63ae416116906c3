package notifier

import (
	"errors"

	"github.com/amishk599/boardsync/internal/model"
)

var _ model.Notifier = Multi(nil)

// Multi sends a summary to every notifier, joining their errors.
type Multi []model.Notifier

func (m Multi) Notify(sum model.RunSummary) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(sum); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

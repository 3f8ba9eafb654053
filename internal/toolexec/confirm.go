package toolexec

import (
	"fmt"

	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// Confirmation renders the transcript line for a created event.
func Confirmation(e models.Event, l dateutil.Locale) string {
	if l == dateutil.LocaleJapanese {
		return fmt.Sprintf("✨ 予定「%s」を %s に追加しました。", e.Title, dateutil.FormatTime(e.Start))
	}
	return fmt.Sprintf("Added «%s» at %s", e.Title, dateutil.FormatTime(e.Start))
}

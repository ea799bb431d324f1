package colloqui

import (
	"fmt"

	"github.com/Freeeeeet/colloqui/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var italianWeekdays = [...]string{
	"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato",
}

var italianMonths = [...]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

// BlockLabel подпись окна для списка выбора: "Lunedì 3 Novembre 2025, dalle 15:00 alle 17:00"
func BlockLabel(block *model.MeetingBlock) string {
	date := fmt.Sprintf("%s %d %s %d",
		italianWeekdays[block.Date.Weekday()],
		block.Date.Day(),
		italianMonths[block.Date.Month()-1],
		block.Date.Year())

	// Caser хранит состояние, общий экземпляр нельзя делить между горутинами
	title := cases.Title(language.Italian)
	return fmt.Sprintf("%s, dalle %s alle %s", title.String(date), block.Start.Short(), block.End.Short())
}

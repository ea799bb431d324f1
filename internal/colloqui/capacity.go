package colloqui

import (
	"fmt"

	"github.com/Freeeeeet/colloqui/internal/model"
)

// Capacity сколько встреч длительностью durationMinutes помещается в окне [start, end)
func Capacity(start, end model.TimeOfDay, durationMinutes int) (int, error) {
	if durationMinutes <= 0 {
		return 0, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, durationMinutes)
	}
	window := model.TimeRange{Start: start, End: end}
	return window.Minutes() / durationMinutes, nil
}

// BlockCapacity пересчитывает вместимость окна по его времени и длительности встречи
func BlockCapacity(block *model.MeetingBlock) (int, error) {
	return Capacity(block.Start, block.End, block.DurationMinutes)
}

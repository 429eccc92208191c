package month

import (
	"time"
)

// Same сообщает, попадают ли моменты в один календарный месяц (по UTC).
func Same(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

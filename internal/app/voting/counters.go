package voting

import "fmt"

func CounterKeyEventTotal(eventID uint) string {
	return fmt.Sprintf("event:%d:total", eventID)
}

func CounterKeyEntry(eventID, entryID uint) string {
	return fmt.Sprintf("event:%d:entry:%d", eventID, entryID)
}

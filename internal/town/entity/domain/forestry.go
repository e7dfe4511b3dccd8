package domain

import "time"

// TreeSize 树提供的森林供给随树龄增长。
func TreeSize(age time.Duration) int {
	h := int(age / time.Hour)
	switch {
	case h < 1:
		return 1
	case h < 4:
		return 2
	case h <= 45:
		return 3 + h/9
	case h < 72:
		return 9
	default:
		return 10
	}
}

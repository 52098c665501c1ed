package domain

import "time"

// TimelineEvent описывает событие в жизненном цикле педидо.
type TimelineEvent struct {
	OrderID  int64
	Type     string
	Reason   string
	Occurred time.Time
}

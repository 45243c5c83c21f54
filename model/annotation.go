package model

import (
	"fmt"
	"time"
)

// Annotation is a discrete clinical event marked on the time axis
// Annotation 离散的临床事件（例如一次治疗），在时间轴上以竖线标记。
// Selected 只是界面状态，不会被持久化。
type Annotation struct {
	ID       string            `json:"id"`
	Time     time.Time         `json:"time"`
	Label    string            `json:"label"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Selected bool              `json:"selected"`
}

// String returns a readable representation of the event
// String 返回事件的字符串表示
func (a Annotation) String() string {
	return fmt.Sprintf("[%s] %s (%s)", a.Time.Format(time.RFC3339), a.Label, a.ID)
}

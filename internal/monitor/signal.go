package monitor

import (
	"time"

	"github.com/v0xg/uisweep/internal/classify"
)

// CapturedSignal is one observed error or warning instance, stamped with
// everything the reports need to stay meaningful after the run ends.
type CapturedSignal struct {
	Seq            int64             `json:"seq"`
	Timestamp      time.Time         `json:"timestamp"`
	PageURL        string            `json:"pageUrl"`
	Target         string            `json:"target"`
	Category       classify.Category `json:"category"`
	Message        string            `json:"message"`
	Stack          string            `json:"stack,omitempty"`
	ScreenshotPath string            `json:"screenshotPath,omitempty"`
	RequestURL     string            `json:"requestUrl,omitempty"`
	Status         int               `json:"status,omitempty"`
	IsNew          bool              `json:"isNew"`
}

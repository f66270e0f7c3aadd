// internal/ui/logmanager.go
package ui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

const DefaultMaxLogMessages = 100

// LogUIManager keeps the last log messages and pages through them in the
// status bar. It is a logrus hook, so everything the app logs at info or
// above shows up there.
type LogUIManager struct {
	mu              sync.Mutex
	logMessages     []string
	currentLogIndex int
	maxLogMessages  int

	// UI elements it controls
	statusLogLabel   *widget.Label
	statusLogUpBtn   *widget.Button
	statusLogDownBtn *widget.Button
}

var _ logrus.Hook = (*LogUIManager)(nil)

func NewLogUIManager(logLabel *widget.Label, upBtn, downBtn *widget.Button, maxMessages int) *LogUIManager {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxLogMessages
	}
	return &LogUIManager{
		logMessages:      make([]string, 0, maxMessages),
		currentLogIndex:  -1,
		maxLogMessages:   maxMessages,
		statusLogLabel:   logLabel,
		statusLogUpBtn:   upBtn,
		statusLogDownBtn: downBtn,
	}
}

// Levels implements logrus.Hook.
func (lm *LogUIManager) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel}
}

// Fire implements logrus.Hook. It may run on any goroutine.
func (lm *LogUIManager) Fire(entry *logrus.Entry) error {
	msg := entry.Message
	if err, ok := entry.Data[logrus.ErrorKey]; ok {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	if src, ok := entry.Data["src"]; ok {
		msg = fmt.Sprintf("%s (%v)", msg, src)
	}
	lm.AddLogMessage(msg)
	return nil
}

func (lm *LogUIManager) AddLogMessage(message string) {
	lm.mu.Lock()
	lm.logMessages = append(lm.logMessages, message)
	if len(lm.logMessages) > lm.maxLogMessages {
		lm.logMessages = lm.logMessages[len(lm.logMessages)-lm.maxLogMessages:]
	}
	lm.currentLogIndex = len(lm.logMessages) - 1
	lm.mu.Unlock()
	fyne.Do(lm.UpdateLogDisplay)
}

// UpdateLogDisplay must run on the UI goroutine.
func (lm *LogUIManager) UpdateLogDisplay() {
	if lm.statusLogLabel == nil || lm.statusLogUpBtn == nil || lm.statusLogDownBtn == nil {
		return
	}
	lm.mu.Lock()
	count := len(lm.logMessages)
	if count > 0 {
		if lm.currentLogIndex < 0 {
			lm.currentLogIndex = 0
		} else if lm.currentLogIndex >= count {
			lm.currentLogIndex = count - 1
		}
	}
	index := lm.currentLogIndex
	text := ""
	if count > 0 {
		text = fmt.Sprintf("[%d/%d] %s", index+1, count, lm.logMessages[index])
	}
	lm.mu.Unlock()

	lm.statusLogLabel.SetText(text)
	if count == 0 || index <= 0 {
		lm.statusLogUpBtn.Disable()
	} else {
		lm.statusLogUpBtn.Enable()
	}
	if count == 0 || index >= count-1 {
		lm.statusLogDownBtn.Disable()
	} else {
		lm.statusLogDownBtn.Enable()
	}
}

func (lm *LogUIManager) ShowPreviousLogMessage() {
	lm.mu.Lock()
	if len(lm.logMessages) == 0 || lm.currentLogIndex <= 0 {
		lm.mu.Unlock()
		return
	}
	lm.currentLogIndex--
	lm.mu.Unlock()
	lm.UpdateLogDisplay()
}

func (lm *LogUIManager) ShowNextLogMessage() {
	lm.mu.Lock()
	if len(lm.logMessages) == 0 || lm.currentLogIndex >= len(lm.logMessages)-1 {
		lm.mu.Unlock()
		return
	}
	lm.currentLogIndex++
	lm.mu.Unlock()
	lm.UpdateLogDisplay()
}
